package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
)

type syncFixture struct {
	files        *MockFileRepository
	configs      *MockFileConfigRepository
	source       *MockFileSource
	configSource *MockConfigProvider
	events       *MockEventPublisher
	notifier     *MockNotifier
	uc           *SyncDriveUseCase
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		files:        new(MockFileRepository),
		configs:      new(MockFileConfigRepository),
		source:       new(MockFileSource),
		configSource: new(MockConfigProvider),
		events:       new(MockEventPublisher),
		notifier:     new(MockNotifier),
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f.uc = &SyncDriveUseCase{
		Files:          f.files,
		Configs:        f.configs,
		Source:         f.source,
		ConfigSource:   f.configSource,
		Events:         f.events,
		Notifier:       f.notifier,
		ParentFolderID: "parent-1",
		Lookback:       24 * time.Hour,
		Log:            log,
	}
	return f
}

func TestSyncDriveRegistersAndDispatches(t *testing.T) {
	f := newSyncFixture()

	descriptors := []FileDescriptor{
		{ID: "drive-1", Name: "boston_dentists.xlsx", FileExtension: "xlsx", OwnerEmail: "sal@corp.com"},
	}
	f.source.On("ListModified", mock.Anything, "parent-1", mock.Anything).Return(descriptors, nil)
	f.files.On("RegisterNew", mock.Anything, mock.Anything).Return(1, nil)

	unclassified := []*entity.FileRecord{{UUID: "file-1", DriveID: "drive-1", Name: "boston_dentists.xlsx"}}
	f.files.On("Unclassified", mock.Anything).Return(unclassified, nil)
	f.source.On("ParentFolderName", mock.Anything, "drive-1").Return("ZI Search", nil)
	f.files.On("SetFileType", mock.Anything, "file-1", entity.FileTypeZiSearch).Return(nil)

	configs := []*entity.FileConfig{entity.NewFileConfig("boston_dentists", "sal@corp.com", "Boston Dentists", entity.FileTypeZiSearch)}
	f.configSource.On("FetchConfigs", mock.Anything).Return(configs, nil)
	f.configs.On("UpsertAll", mock.Anything, configs).Return(nil)
	f.files.On("AttachConfigs", mock.Anything).Return(int64(1), nil)

	f.files.On("MissingConfigUnnotified", mock.Anything).Return([]*entity.FileRecord{}, nil)

	cfg := "cfg-1"
	ready := []*entity.FileRecord{{UUID: "file-1", DriveID: "drive-1", Name: "boston_dentists.xlsx", FileType: entity.FileTypeZiSearch, ConfigUUID: &cfg}}
	f.files.On("Dispatchable", mock.Anything).Return(ready, nil)
	f.events.On("PublishFileReady", mock.Anything, queue.FileReadyPayload{
		FileUUID: "file-1", DriveID: "drive-1", Name: "boston_dentists.xlsx", FileType: entity.FileTypeZiSearch,
	}).Return(nil)

	report, err := f.uc.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Discovered)
	assert.Equal(t, 1, report.Registered)
	assert.Equal(t, 1, report.Classified)
	assert.Equal(t, 1, report.ConfigsSynced)
	assert.Equal(t, 1, report.EventsPublished)
	f.events.AssertExpectations(t)
}

func TestSyncDriveUnknownFolderStaysUnclassified(t *testing.T) {
	f := newSyncFixture()

	f.source.On("ListModified", mock.Anything, "parent-1", mock.Anything).Return([]FileDescriptor{}, nil)
	unclassified := []*entity.FileRecord{{UUID: "file-1", DriveID: "drive-1", Name: "misc.xlsx"}}
	f.files.On("Unclassified", mock.Anything).Return(unclassified, nil)
	f.source.On("ParentFolderName", mock.Anything, "drive-1").Return("Random Stuff", nil)
	f.configSource.On("FetchConfigs", mock.Anything).Return([]*entity.FileConfig{}, nil)
	f.files.On("AttachConfigs", mock.Anything).Return(int64(0), nil)
	f.files.On("MissingConfigUnnotified", mock.Anything).Return([]*entity.FileRecord{}, nil)
	f.files.On("Dispatchable", mock.Anything).Return([]*entity.FileRecord{}, nil)

	report, err := f.uc.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Classified)
	f.files.AssertNotCalled(t, "SetFileType", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncDriveMissingConfigNoticeOnce(t *testing.T) {
	f := newSyncFixture()

	f.source.On("ListModified", mock.Anything, "parent-1", mock.Anything).Return([]FileDescriptor{}, nil)
	f.files.On("Unclassified", mock.Anything).Return([]*entity.FileRecord{}, nil)
	f.configSource.On("FetchConfigs", mock.Anything).Return([]*entity.FileConfig{}, nil)
	f.files.On("AttachConfigs", mock.Anything).Return(int64(0), nil)

	waiting := []*entity.FileRecord{{UUID: "file-1", Name: "orphan.xlsx", OwnerEmail: "sal@corp.com", FileType: entity.FileTypeCitySearch}}
	f.files.On("MissingConfigUnnotified", mock.Anything).Return(waiting, nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return len(msg) > 0
	})).Return(nil)
	f.files.On("MarkNotified", mock.Anything, "file-1").Return(nil)
	f.files.On("Dispatchable", mock.Anything).Return([]*entity.FileRecord{}, nil)

	_, err := f.uc.Execute(context.Background())

	assert.NoError(t, err)
	f.files.AssertCalled(t, "MarkNotified", mock.Anything, "file-1")
}

func TestSyncDriveNotifyFailureKeepsFlagUnset(t *testing.T) {
	f := newSyncFixture()

	f.source.On("ListModified", mock.Anything, "parent-1", mock.Anything).Return([]FileDescriptor{}, nil)
	f.files.On("Unclassified", mock.Anything).Return([]*entity.FileRecord{}, nil)
	f.configSource.On("FetchConfigs", mock.Anything).Return([]*entity.FileConfig{}, nil)
	f.files.On("AttachConfigs", mock.Anything).Return(int64(0), nil)

	waiting := []*entity.FileRecord{{UUID: "file-1", Name: "orphan.xlsx"}}
	f.files.On("MissingConfigUnnotified", mock.Anything).Return(waiting, nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("slack down"))
	f.files.On("Dispatchable", mock.Anything).Return([]*entity.FileRecord{}, nil)

	_, err := f.uc.Execute(context.Background())

	// The notice retries next pass; the flag stays NULL.
	assert.NoError(t, err)
	f.files.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything)
}

func TestSyncDriveDropsInvalidConfigRows(t *testing.T) {
	f := newSyncFixture()

	f.source.On("ListModified", mock.Anything, "parent-1", mock.Anything).Return([]FileDescriptor{}, nil)
	f.files.On("Unclassified", mock.Anything).Return([]*entity.FileRecord{}, nil)

	good := entity.NewFileConfig("boston_dentists", "sal@corp.com", "Boston", entity.FileTypeZiSearch)
	bad := entity.NewFileConfig("", "", "", "")
	f.configSource.On("FetchConfigs", mock.Anything).Return([]*entity.FileConfig{good, bad}, nil)
	f.configs.On("UpsertAll", mock.Anything, []*entity.FileConfig{good}).Return(nil)
	f.files.On("AttachConfigs", mock.Anything).Return(int64(0), nil)
	f.files.On("MissingConfigUnnotified", mock.Anything).Return([]*entity.FileRecord{}, nil)
	f.files.On("Dispatchable", mock.Anything).Return([]*entity.FileRecord{}, nil)

	report, err := f.uc.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, report.ConfigsSynced)
	f.configs.AssertExpectations(t)
}

func TestSyncDriveListFailure(t *testing.T) {
	f := newSyncFixture()
	f.source.On("ListModified", mock.Anything, "parent-1", mock.Anything).
		Return(nil, errors.New("drive 500"))

	_, err := f.uc.Execute(context.Background())

	var techErr *TechnicalError
	assert.ErrorAs(t, err, &techErr)
}
