package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) RegisterNew(ctx context.Context, files []*entity.FileRecord) (int, error) {
	args := m.Called(ctx, files)
	return args.Int(0), args.Error(1)
}

func (m *MockFileRepository) FindByUUID(ctx context.Context, fileUUID string) (*entity.FileRecord, error) {
	args := m.Called(ctx, fileUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileRecord), args.Error(1)
}

func (m *MockFileRepository) Unclassified(ctx context.Context) ([]*entity.FileRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FileRecord), args.Error(1)
}

func (m *MockFileRepository) SetFileType(ctx context.Context, fileUUID string, ft entity.FileType) error {
	args := m.Called(ctx, fileUUID, ft)
	return args.Error(0)
}

func (m *MockFileRepository) AttachConfigs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileRepository) MissingConfigUnnotified(ctx context.Context) ([]*entity.FileRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FileRecord), args.Error(1)
}

func (m *MockFileRepository) MarkNotified(ctx context.Context, fileUUID string) error {
	args := m.Called(ctx, fileUUID)
	return args.Error(0)
}

func (m *MockFileRepository) MarkProcessed(ctx context.Context, fileUUID string) error {
	args := m.Called(ctx, fileUUID)
	return args.Error(0)
}

func (m *MockFileRepository) Dispatchable(ctx context.Context) ([]*entity.FileRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FileRecord), args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) InsertBatch(ctx context.Context, leads []entity.Lead) error {
	args := m.Called(ctx, leads)
	return args.Error(0)
}

func (m *MockLeadRepository) BatchForFile(ctx context.Context, fileUUID string, source entity.LeadSource) ([]entity.Lead, error) {
	args := m.Called(ctx, fileUUID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) CountForFile(ctx context.Context, fileUUID string, source entity.LeadSource) (int, error) {
	args := m.Called(ctx, fileUUID, source)
	return args.Int(0), args.Error(1)
}

type MockFileConfigRepository struct {
	mock.Mock
}

func (m *MockFileConfigRepository) UpsertAll(ctx context.Context, configs []*entity.FileConfig) error {
	args := m.Called(ctx, configs)
	return args.Error(0)
}

func (m *MockFileConfigRepository) FindByUUID(ctx context.Context, configUUID string) (*entity.FileConfig, error) {
	args := m.Called(ctx, configUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileConfig), args.Error(1)
}

type MockTrackingStore struct {
	mock.Mock
}

func (m *MockTrackingStore) MarkPosted(ctx context.Context, ref entity.LeadRef, email string) error {
	args := m.Called(ctx, ref, email)
	return args.Error(0)
}

func (m *MockTrackingStore) MarkShopifyCustomer(ctx context.Context, ref entity.LeadRef, email string) error {
	args := m.Called(ctx, ref, email)
	return args.Error(0)
}

func (m *MockTrackingStore) PostedEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	args := m.Called(ctx, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockTrackingStore) HasPosted(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackingStore) Metrics(ctx context.Context, fileUUID string) (entity.TrackingMetrics, error) {
	args := m.Called(ctx, fileUUID)
	return args.Get(0).(entity.TrackingMetrics), args.Error(1)
}

type MockCustomerRegistry struct {
	mock.Mock
}

func (m *MockCustomerRegistry) Contains(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRegistry) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	args := m.Called(ctx, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

type MockFileSource struct {
	mock.Mock
}

func (m *MockFileSource) ListModified(ctx context.Context, folderID string, since time.Time) ([]FileDescriptor, error) {
	args := m.Called(ctx, folderID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FileDescriptor), args.Error(1)
}

func (m *MockFileSource) Download(ctx context.Context, fileID string) ([]byte, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFileSource) ParentFolderName(ctx context.Context, fileID string) (string, error) {
	args := m.Called(ctx, fileID)
	return args.String(0), args.Error(1)
}

type MockConfigProvider struct {
	mock.Mock
}

func (m *MockConfigProvider) FetchConfigs(ctx context.Context) ([]*entity.FileConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FileConfig), args.Error(1)
}

type MockSheetSink struct {
	mock.Mock
}

func (m *MockSheetSink) Publish(ctx context.Context, batch SheetBatch, spreadsheetName, worksheet string) (string, error) {
	args := m.Called(ctx, batch, spreadsheetName, worksheet)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockFailureReporter struct {
	mock.Mock
}

func (m *MockFailureReporter) SendFailureReport(fileName, reason string) error {
	args := m.Called(fileName, reason)
	return args.Error(0)
}

type MockLeadParser struct {
	mock.Mock
}

func (m *MockLeadParser) ParseLeads(data []byte, file *entity.FileRecord) ([]entity.Lead, error) {
	args := m.Called(data, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishFileReady(ctx context.Context, payload queue.FileReadyPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
