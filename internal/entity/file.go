package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileType classifies the lead shape of a source file. It is derived from
// the Drive parent folder name and is a closed vocabulary: anything else
// stays unclassified.
type FileType string

const (
	FileTypeZiSearch           FileType = "zi_search"
	FileTypeCitySearch         FileType = "city_search"
	FileTypeCitySearchEnriched FileType = "city_search_enriched"
)

// ParseFileType normalizes a Drive folder name ("ZI Search", "city search")
// into a FileType. ok is false for folders outside the vocabulary.
func ParseFileType(folderName string) (FileType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(folderName))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	switch FileType(normalized) {
	case FileTypeZiSearch:
		return FileTypeZiSearch, true
	case FileTypeCitySearch:
		return FileTypeCitySearch, true
	case FileTypeCitySearchEnriched:
		return FileTypeCitySearchEnriched, true
	}
	return "", false
}

// FileRecord mirrors one row of sales_leads.drive_metadata: a source file
// sighted in the Drive folder tree and tracked through the pipeline.
type FileRecord struct {
	UUID          string    `json:"uuid"`
	DriveID       string    `json:"drive_id"`
	Name          string    `json:"name"`
	FileExtension string    `json:"file_extension"`
	OwnerEmail    string    `json:"owner_email"`
	FileType      FileType  `json:"file_type,omitempty"` // empty until classified
	ConfigUUID    *string   `json:"config_uuid,omitempty"`
	Processed     bool      `json:"has_been_processed"`
	// NotifiedMissingConfig is nil until the one-time "missing config" notice
	// fires. NULL, not false, is the "never notified" state.
	NotifiedMissingConfig *bool     `json:"has_posted_on_slack,omitempty"`
	DriveCreatedTime      time.Time `json:"drive_created_time"`
	DriveModifiedTime     time.Time `json:"drive_modified_time"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

var ErrFileNotFound = errors.New("file record not found")

// NewFileRecord registers a freshly discovered Drive file. FileType and
// ConfigUUID arrive later, asynchronously.
func NewFileRecord(driveID, name, extension, owner string, createdTime, modifiedTime time.Time) (*FileRecord, error) {
	if driveID == "" {
		return nil, errors.New("drive id is required")
	}
	if name == "" {
		return nil, errors.New("file name is required")
	}

	now := time.Now().UTC()
	return &FileRecord{
		UUID:              uuid.New().String(),
		DriveID:           driveID,
		Name:              name,
		FileExtension:     extension,
		OwnerEmail:        owner,
		DriveCreatedTime:  createdTime,
		DriveModifiedTime: modifiedTime,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Classified reports whether the file type has been resolved.
func (f *FileRecord) Classified() bool {
	return f.FileType != ""
}

// Configured reports whether a config entry has been attached. Unconfigured
// files are withheld from dispatch.
func (f *FileRecord) Configured() bool {
	return f.ConfigUUID != nil && *f.ConfigUUID != ""
}

// Dispatchable reports whether the file can enter the load/dispatch path.
func (f *FileRecord) Dispatchable() bool {
	return !f.Processed && f.Classified() && f.Configured()
}
