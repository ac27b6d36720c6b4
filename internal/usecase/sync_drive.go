package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
)

// SyncReport summarizes one discovery pass for the HTTP trigger response
// and the logs.
type SyncReport struct {
	Discovered      int `json:"discovered"`
	Registered      int `json:"registered"`
	Classified      int `json:"classified"`
	ConfigsSynced   int `json:"configs_synced"`
	ConfigsAttached int `json:"configs_attached"`
	EventsPublished int `json:"events_published"`
}

// SyncDriveUseCase is the discovery half of the pipeline: sight new files
// in the Drive tree, classify them by parent folder, refresh config
// entries, and hand dispatchable files to the worker via the broker.
// Every step is re-entrant; running two passes back to back changes
// nothing the second time.
type SyncDriveUseCase struct {
	Files        FileRepository
	Configs      FileConfigRepository
	Source       FileSource
	ConfigSource ConfigProvider
	Events       queue.FileEventPublisher
	Notifier     Notifier

	ParentFolderID string
	Lookback       time.Duration
	Log            *logrus.Logger
}

func (uc *SyncDriveUseCase) Execute(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}

	since := time.Now().UTC().Add(-uc.Lookback)
	descriptors, err := uc.Source.ListModified(ctx, uc.ParentFolderID, since)
	if err != nil {
		return nil, NewTechnicalError("list drive files", err)
	}
	report.Discovered = len(descriptors)

	if len(descriptors) > 0 {
		records := make([]*entity.FileRecord, 0, len(descriptors))
		for _, d := range descriptors {
			rec, err := entity.NewFileRecord(d.ID, d.Name, d.FileExtension, d.OwnerEmail, d.CreatedTime, d.ModifiedTime)
			if err != nil {
				uc.Log.WithError(err).WithField("drive_id", d.ID).Warn("skipping unregisterable file")
				continue
			}
			records = append(records, rec)
		}
		registered, err := uc.Files.RegisterNew(ctx, records)
		if err != nil {
			return nil, NewTechnicalError("register files", err)
		}
		report.Registered = registered
	}

	classified, err := uc.classifyPending(ctx)
	if err != nil {
		return nil, err
	}
	report.Classified = classified

	synced, attached, err := uc.syncConfigs(ctx)
	if err != nil {
		return nil, err
	}
	report.ConfigsSynced = synced
	report.ConfigsAttached = attached

	if err := uc.notifyMissingConfigs(ctx); err != nil {
		return nil, err
	}

	published, err := uc.dispatchReady(ctx)
	if err != nil {
		return nil, err
	}
	report.EventsPublished = published

	uc.Log.WithFields(logrus.Fields{
		"discovered": report.Discovered,
		"registered": report.Registered,
		"classified": report.Classified,
		"published":  report.EventsPublished,
	}).Info("drive sync pass complete")
	return report, nil
}

// classifyPending resolves the file type of every unclassified record from
// its Drive parent folder name. Folders outside the known vocabulary leave
// the file unclassified; it is retried on the next pass.
func (uc *SyncDriveUseCase) classifyPending(ctx context.Context) (int, error) {
	pending, err := uc.Files.Unclassified(ctx)
	if err != nil {
		return 0, NewTechnicalError("load unclassified files", err)
	}

	classified := 0
	for _, f := range pending {
		folder, err := uc.Source.ParentFolderName(ctx, f.DriveID)
		if err != nil {
			uc.Log.WithError(err).WithField("file", f.Name).Warn("could not resolve parent folder")
			continue
		}
		ft, ok := entity.ParseFileType(folder)
		if !ok {
			uc.Log.WithFields(logrus.Fields{"file": f.Name, "folder": folder}).Warn("folder outside known vocabulary")
			continue
		}
		if err := uc.Files.SetFileType(ctx, f.UUID, ft); err != nil {
			return classified, NewTechnicalError("classify file", err)
		}
		classified++
	}
	return classified, nil
}

// syncConfigs pulls the latest config sheet snapshot and links entries to
// files by name.
func (uc *SyncDriveUseCase) syncConfigs(ctx context.Context) (int, int, error) {
	configs, err := uc.ConfigSource.FetchConfigs(ctx)
	if err != nil {
		return 0, 0, NewTechnicalError("fetch config sheet", err)
	}

	valid := configs[:0]
	for _, c := range configs {
		if errs := ValidateFileConfig(c); len(errs) > 0 {
			uc.Log.WithFields(logrus.Fields{"file_name": c.FileName, "errors": errs}).Warn("dropping invalid config row")
			continue
		}
		valid = append(valid, c)
	}

	if len(valid) > 0 {
		if err := uc.Configs.UpsertAll(ctx, valid); err != nil {
			return 0, 0, NewTechnicalError("upsert configs", err)
		}
	}

	attached, err := uc.Files.AttachConfigs(ctx)
	if err != nil {
		return 0, 0, NewTechnicalError("attach configs", err)
	}
	return len(valid), int(attached), nil
}

// notifyMissingConfigs fires the one-shot Slack notice for classified files
// still waiting on a config entry. The flag flips on first notice so
// subsequent passes stay quiet.
func (uc *SyncDriveUseCase) notifyMissingConfigs(ctx context.Context) error {
	waiting, err := uc.Files.MissingConfigUnnotified(ctx)
	if err != nil {
		return NewTechnicalError("load unconfigured files", err)
	}

	for _, f := range waiting {
		msg := fmt.Sprintf("File *%s* (owner %s) was found but has no entry in the QuickMail config sheet. Its leads are on hold until one is added.", f.Name, f.OwnerEmail)
		if err := uc.Notifier.Notify(ctx, msg); err != nil {
			// Leave the flag unset so the notice retries next pass.
			uc.Log.WithError(err).WithField("file", f.Name).Warn("missing-config notice failed")
			continue
		}
		if err := uc.Files.MarkNotified(ctx, f.UUID); err != nil {
			return NewTechnicalError("mark notified", err)
		}
	}
	return nil
}

// dispatchReady publishes a file-ready event for every unprocessed,
// classified, configured file. Duplicate events are harmless downstream.
func (uc *SyncDriveUseCase) dispatchReady(ctx context.Context) (int, error) {
	ready, err := uc.Files.Dispatchable(ctx)
	if err != nil {
		return 0, NewTechnicalError("load dispatchable files", err)
	}

	published := 0
	for _, f := range ready {
		payload := queue.FileReadyPayload{
			FileUUID: f.UUID,
			DriveID:  f.DriveID,
			Name:     f.Name,
			FileType: f.FileType,
		}
		if err := uc.Events.PublishFileReady(ctx, payload); err != nil {
			return published, NewTechnicalError("publish file-ready", err)
		}
		published++
	}
	return published, nil
}
