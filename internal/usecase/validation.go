package usecase

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/quickmailhq/leadsync/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateFileConfig checks a config sheet row before it is persisted.
// Rows are human-typed, so bad data is expected, not exceptional.
func ValidateFileConfig(c *entity.FileConfig) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.FileName) == "" {
		errs = append(errs, ValidationError{Field: "file_name", Message: "is required"})
	}
	if c.FileType != "" {
		if _, ok := entity.ParseFileType(string(c.FileType)); !ok {
			errs = append(errs, ValidationError{Field: "file_type", Message: fmt.Sprintf("unknown value %q", c.FileType)})
		}
	}
	if c.Owner != "" && !IsValidEmail(c.Owner) {
		errs = append(errs, ValidationError{Field: "hubspot_owner", Message: "is not a valid email address"})
	}
	return errs
}

// IsValidEmail accepts addr-spec emails. Used for config owners only; lead
// emails are taken as-is, since a malformed lead email simply never matches
// anything and stays dispatchable.
func IsValidEmail(s string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil
}
