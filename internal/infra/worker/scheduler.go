package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/usecase"
)

// Scheduler runs the drive sync on a cron expression. The default schedule
// fires every ten minutes on weekdays, matching when the sales team drops
// files.
type Scheduler struct {
	Sync *usecase.SyncDriveUseCase
	Log  *logrus.Logger

	cron *cron.Cron
}

func NewScheduler(sync *usecase.SyncDriveUseCase, log *logrus.Logger) *Scheduler {
	return &Scheduler{Sync: sync, Log: log, cron: cron.New()}
}

// Start registers the sync job and starts the cron loop. Overlapping runs
// are not prevented; a second pass over the same state is a no-op anyway.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sync.Execute(ctx); err != nil {
			s.Log.WithError(err).Error("scheduled sync failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.Log.WithField("schedule", schedule).Info("sync scheduler started")

	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}
