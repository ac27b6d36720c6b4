package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/http/middleware"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
)

// outputHeader is the column set QuickMail imports from the weekly sheet.
var outputHeader = []string{
	"first_name",
	"last_name",
	"job_title",
	"job_function",
	"company_name",
	"email_address",
	"direct_phone_number",
	"linkedin_contact_profile_url",
	"website",
}

// ProcessFileUseCase drives one file from registered to processed: load its
// rows, select the never-seen leads, publish them to the weekly output
// sheet, then record the dispatch in the tracking ledger. The ledger write
// comes last deliberately; a crash between sheet write and ledger write
// republishes the batch on retry instead of silently losing it.
type ProcessFileUseCase struct {
	Files    FileRepository
	Leads    LeadRepository
	Configs  FileConfigRepository
	Ledger   *LedgerService
	Source   FileSource
	Parser   LeadParser
	Sheets   SheetSink
	Notifier Notifier
	Mail     FailureReporter

	Log *logrus.Logger
	Now func() time.Time // injected for week-title tests
}

func (uc *ProcessFileUseCase) ProcessFile(ctx context.Context, fileUUID string) error {
	file, err := uc.Files.FindByUUID(ctx, fileUUID)
	if err != nil {
		if errors.Is(err, entity.ErrFileNotFound) {
			return NewDomainError("FILE_NOT_FOUND", fmt.Sprintf("no file record %s", fileUUID))
		}
		return NewTechnicalError("load file record", err)
	}

	log := uc.Log.WithFields(logrus.Fields{"file_uuid": file.UUID, "file_name": file.Name})

	if file.Processed {
		log.Info("file already processed, skipping")
		return nil
	}
	if !file.Classified() {
		return queue.ErrNotReady
	}

	if err := uc.ensureLoaded(ctx, file, log); err != nil {
		return err
	}

	if !file.Configured() {
		return queue.ErrNotReady
	}

	batch, err := uc.Leads.BatchForFile(ctx, file.UUID, file.FileType.LeadSource())
	if err != nil {
		return NewTechnicalError("load lead batch", err)
	}

	result, err := uc.Ledger.SelectForFile(ctx, file, batch)
	if err != nil {
		return err
	}

	log = log.WithFields(logrus.Fields{
		"batch":          len(batch),
		"new":            len(result.NewLeads),
		"skipped_posted": result.SkippedPosted,
		"customers":      result.SkippedCustomer,
	})

	if len(result.NewLeads) == 0 {
		log.Info("no new leads in file")
		uc.notify(ctx, log, fmt.Sprintf("No new leads in *%s*: every contact was already tracked or is an existing customer.", file.Name))
		if err := uc.Files.MarkProcessed(ctx, file.UUID); err != nil {
			return NewTechnicalError("mark processed", err)
		}
		return nil
	}

	location, err := uc.Sheets.Publish(ctx, buildSheetBatch(result.NewLeads), uc.weeklySheetTitle(), uc.worksheetTitle(ctx, file))
	if err != nil {
		middleware.RecordIntegrationError("sheets")
		return NewTechnicalError("publish output sheet", err)
	}

	// Ledger writes happen only after the sheet write succeeded. A partial
	// failure here means some leads may be republished on retry; the store
	// keeps each posted row unique, so the ledger itself never doubles.
	for _, l := range result.NewLeads {
		if err := uc.Ledger.MarkPosted(ctx, l); err != nil {
			return err
		}
	}
	for _, l := range result.Customers {
		if err := uc.Ledger.MarkShopifyCustomer(ctx, l); err != nil {
			return err
		}
	}

	metrics, err := uc.Ledger.Metrics(ctx, file.UUID)
	if err != nil {
		// Advisory only: the dispatch itself is complete, so the team still
		// gets told, just with the batch count instead of ledger totals.
		log.WithError(err).Warn("tracking metrics unavailable")
		uc.notify(ctx, log, fmt.Sprintf(
			"Dispatched %d new leads from *%s*.\n%s",
			len(result.NewLeads), file.Name, location,
		))
	} else {
		uc.notify(ctx, log, fmt.Sprintf(
			"Dispatched %d new leads from *%s* (%d known Shopify customers skipped).\n%s",
			metrics.Posted, file.Name, metrics.ShopifyCustomers, location,
		))
	}

	if err := uc.Files.MarkProcessed(ctx, file.UUID); err != nil {
		return NewTechnicalError("mark processed", err)
	}

	middleware.RecordFileProcessed(string(file.FileType))
	middleware.RecordLeadsDispatched(len(result.NewLeads))
	middleware.RecordLeadsSkipped("already_posted", result.SkippedPosted)
	middleware.RecordLeadsSkipped("existing_customer", result.SkippedCustomer)
	middleware.RecordLeadsSkipped("no_email", result.SkippedNoEmail)
	middleware.RecordLeadsSkipped("batch_duplicate", result.SkippedBatchDupe)

	log.Info("file dispatched")
	return nil
}

// ensureLoaded downloads and parses the file into the raw lead table, once.
// A previous partial run may have already loaded the rows; the row count is
// the guard.
func (uc *ProcessFileUseCase) ensureLoaded(ctx context.Context, file *entity.FileRecord, log *logrus.Entry) error {
	source := file.FileType.LeadSource()
	count, err := uc.Leads.CountForFile(ctx, file.UUID, source)
	if err != nil {
		return NewTechnicalError("count loaded leads", err)
	}
	if count > 0 {
		return nil
	}

	data, err := uc.Source.Download(ctx, file.DriveID)
	if err != nil {
		return NewTechnicalError("download file", err)
	}

	leads, err := uc.Parser.ParseLeads(data, file)
	if err != nil {
		uc.reportMalformed(ctx, file, err, log)
		return NewDomainError("MALFORMED_FILE", fmt.Sprintf("%s: %v", file.Name, err))
	}
	if len(leads) == 0 {
		log.Warn("file parsed to zero rows")
		return nil
	}

	if err := uc.Leads.InsertBatch(ctx, leads); err != nil {
		return NewTechnicalError("insert lead batch", err)
	}
	log.WithField("rows", len(leads)).Info("file loaded")
	return nil
}

// reportMalformed tells both channels about a file the parser rejected.
// The file stays unprocessed; a human fixes the file and re-triggers it.
func (uc *ProcessFileUseCase) reportMalformed(ctx context.Context, file *entity.FileRecord, cause error, log *logrus.Entry) {
	uc.notify(ctx, log, fmt.Sprintf("File *%s* could not be parsed and was not loaded: %v", file.Name, cause))
	if err := uc.Mail.SendFailureReport(file.Name, cause.Error()); err != nil {
		log.WithError(err).Warn("failure report email not sent")
	}
}

// notify posts to Slack, logging rather than failing on error. A dispatch
// is never rolled back because the announcement did not go through.
func (uc *ProcessFileUseCase) notify(ctx context.Context, log *logrus.Entry, msg string) {
	if err := uc.Notifier.Notify(ctx, msg); err != nil {
		middleware.RecordIntegrationError("slack")
		log.WithError(err).Warn("slack notification failed")
	}
}

// weeklySheetTitle names the output spreadsheet for the current ISO week,
// so each week's dispatches collect in one document.
func (uc *ProcessFileUseCase) weeklySheetTitle() string {
	now := time.Now().UTC()
	if uc.Now != nil {
		now = uc.Now()
	}
	_, week := now.ISOWeek()
	return fmt.Sprintf("Quick Mail Output - Week %02d", week)
}

// worksheetTitle prefers the config's search label, falling back to the
// file name. Labels are what the sales team recognizes the search by.
func (uc *ProcessFileUseCase) worksheetTitle(ctx context.Context, file *entity.FileRecord) string {
	if file.ConfigUUID != nil {
		cfg, err := uc.Configs.FindByUUID(ctx, *file.ConfigUUID)
		if err == nil && cfg.SearchLabel != "" {
			return cfg.SearchLabel
		}
	}
	return file.Name
}

func buildSheetBatch(leads []entity.Lead) SheetBatch {
	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []string{
			l.FirstName,
			l.LastName,
			l.JobTitle,
			l.JobFunction,
			l.Company,
			entity.NormalizeEmail(l.Email),
			l.Phone,
			l.LinkedIn,
			l.Website,
		})
	}
	return SheetBatch{Header: outputHeader, Rows: rows}
}
