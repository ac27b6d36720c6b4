package mail

import (
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends malformed-file reports to the ops mailbox. Slack reaches the
// sales team; this reaches whoever fixes broken exports.
type Mailer struct {
	Dialer *gomail.Dialer
	From   string
	Ops    string
	Log    *logrus.Logger
}

func NewMailer(host string, port int, user, pass, from, ops string, log *logrus.Logger) *Mailer {
	return &Mailer{
		Dialer: gomail.NewDialer(host, port, user, pass),
		From:   from,
		Ops:    ops,
		Log:    log,
	}
}

func (m *Mailer) SendFailureReport(fileName, reason string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.Ops)
	msg.SetHeader("Subject", fmt.Sprintf("[leadsync] file rejected: %s", fileName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"The file %q could not be parsed and was not loaded into the warehouse.\n\nReason: %s\n\nFix the file in Drive; it will be retried automatically.\n", fileName, reason,
	))

	if err := m.Dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send failure report for %s: %w", fileName, err)
	}

	m.Log.WithField("file", fileName).Info("failure report sent")
	return nil
}
