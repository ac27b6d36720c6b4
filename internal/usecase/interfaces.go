package usecase

import (
	"context"
	"time"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// FileDescriptor is what the file source reports for one Drive file.
type FileDescriptor struct {
	ID            string
	Name          string
	FileExtension string
	OwnerEmail    string
	Parents       []string
	CreatedTime   time.Time
	ModifiedTime  time.Time
}

// FileSource lists and fetches source files from the shared Drive tree.
type FileSource interface {
	ListModified(ctx context.Context, folderID string, since time.Time) ([]FileDescriptor, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	ParentFolderName(ctx context.Context, fileID string) (string, error)
}

// ConfigProvider fetches the QuickMail config sheet contents.
type ConfigProvider interface {
	FetchConfigs(ctx context.Context) ([]*entity.FileConfig, error)
}

// SheetBatch is the tabular payload handed to the sheet sink.
type SheetBatch struct {
	Header []string
	Rows   [][]string
}

// SheetSink writes a dispatched batch into the weekly output spreadsheet.
// Returns a handle (URL) for the written location.
type SheetSink interface {
	Publish(ctx context.Context, batch SheetBatch, spreadsheetName, worksheet string) (string, error)
}

// Notifier posts a human-readable event to the sales Slack channel. Every
// dispatch/skip/error surfaces here, not just in logs: the audience is
// sales staff, not engineers.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// FailureReporter sends malformed-input reports to the ops mailbox.
type FailureReporter interface {
	SendFailureReport(fileName, reason string) error
}

// LeadParser turns raw file bytes into normalized leads.
type LeadParser interface {
	ParseLeads(data []byte, file *entity.FileRecord) ([]entity.Lead, error)
}

// FileRepository is the drive_metadata persistence the coordinators need.
type FileRepository interface {
	RegisterNew(ctx context.Context, files []*entity.FileRecord) (int, error)
	FindByUUID(ctx context.Context, fileUUID string) (*entity.FileRecord, error)
	Unclassified(ctx context.Context) ([]*entity.FileRecord, error)
	SetFileType(ctx context.Context, fileUUID string, ft entity.FileType) error
	AttachConfigs(ctx context.Context) (int64, error)
	MissingConfigUnnotified(ctx context.Context) ([]*entity.FileRecord, error)
	MarkNotified(ctx context.Context, fileUUID string) error
	MarkProcessed(ctx context.Context, fileUUID string) error
	Dispatchable(ctx context.Context) ([]*entity.FileRecord, error)
}

// LeadRepository persists and reloads raw lead batches.
type LeadRepository interface {
	InsertBatch(ctx context.Context, leads []entity.Lead) error
	BatchForFile(ctx context.Context, fileUUID string, source entity.LeadSource) ([]entity.Lead, error)
	CountForFile(ctx context.Context, fileUUID string, source entity.LeadSource) (int, error)
}

// FileConfigRepository persists config-sheet entries.
type FileConfigRepository interface {
	UpsertAll(ctx context.Context, configs []*entity.FileConfig) error
	FindByUUID(ctx context.Context, configUUID string) (*entity.FileConfig, error)
}

// TrackingStore is the storage side of the ledger. Uniqueness is enforced
// by the store (conditional inserts against unique indexes), not by the
// callers.
type TrackingStore interface {
	MarkPosted(ctx context.Context, ref entity.LeadRef, email string) error
	MarkShopifyCustomer(ctx context.Context, ref entity.LeadRef, email string) error
	PostedEmails(ctx context.Context, emails []string) (map[string]bool, error)
	HasPosted(ctx context.Context, email string) (bool, error)
	Metrics(ctx context.Context, fileUUID string) (entity.TrackingMetrics, error)
}

// CustomerRegistry is the read-only Shopify customer view.
type CustomerRegistry interface {
	Contains(ctx context.Context, email string) (bool, error)
	ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error)
}
