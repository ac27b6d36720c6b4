package entity

import (
	"time"

	"github.com/google/uuid"
)

// FileConfig is one row of the QuickMail config sheet: per-file dispatch
// metadata keyed by file name. A FileRecord without a matching config is
// withheld from dispatch until one shows up.
type FileConfig struct {
	UUID        string    `json:"uuid"`
	FileName    string    `json:"file_name"`
	Owner       string    `json:"hubspot_owner"`
	SearchLabel string    `json:"search_label"`
	FileType    FileType  `json:"file_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewFileConfig builds a config entry parsed out of the config sheet.
func NewFileConfig(fileName, owner, searchLabel string, fileType FileType) *FileConfig {
	return &FileConfig{
		UUID:        uuid.New().String(),
		FileName:    fileName,
		Owner:       owner,
		SearchLabel: searchLabel,
		FileType:    fileType,
		CreatedAt:   time.Now().UTC(),
	}
}
