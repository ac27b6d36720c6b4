package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
)

// DispatchableSource lists files ready for processing. Satisfied by the
// file repository.
type DispatchableSource interface {
	Dispatchable(ctx context.Context) ([]*entity.FileRecord, error)
}

// RedispatchWorker periodically re-enqueues unprocessed files that are
// classified and configured. It is the safety net for files whose event
// failed or dead-lettered, and for files whose config row arrived after
// discovery already ran. Re-enqueueing an in-flight file is harmless;
// processing is idempotent.
type RedispatchWorker struct {
	Files    DispatchableSource
	Events   queue.FileEventPublisher
	Interval time.Duration
	Log      *logrus.Logger
}

func NewRedispatchWorker(files DispatchableSource, events queue.FileEventPublisher, interval time.Duration, log *logrus.Logger) *RedispatchWorker {
	return &RedispatchWorker{Files: files, Events: events, Interval: interval, Log: log}
}

func (w *RedispatchWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Log.WithField("interval", w.Interval.String()).Info("redispatch worker started")

	for {
		select {
		case <-ctx.Done():
			w.Log.Info("redispatch worker stopped")
			return
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				w.Log.WithError(err).Error("redispatch pass failed")
			}
		}
	}
}

func (w *RedispatchWorker) tick(ctx context.Context) error {
	ready, err := w.Files.Dispatchable(ctx)
	if err != nil {
		return err
	}
	if len(ready) == 0 {
		return nil
	}

	for _, f := range ready {
		payload := queue.FileReadyPayload{
			FileUUID: f.UUID,
			DriveID:  f.DriveID,
			Name:     f.Name,
			FileType: f.FileType,
		}
		if err := w.Events.PublishFileReady(ctx, payload); err != nil {
			return err
		}
	}

	w.Log.WithField("files", len(ready)).Info("unprocessed files re-enqueued")
	return nil
}
