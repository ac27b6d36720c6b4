package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// FileConfigRepository persists the per-file dispatch configuration parsed
// out of the QuickMail config sheet.
type FileConfigRepository struct {
	DB *sql.DB
}

func NewFileConfigRepository(db *sql.DB) *FileConfigRepository {
	return &FileConfigRepository{DB: db}
}

// UpsertAll refreshes config entries from the latest sheet snapshot, keyed
// by file name. Owners and labels may be corrected in the sheet at any
// time, so existing rows are updated in place.
func (r *FileConfigRepository) UpsertAll(ctx context.Context, configs []*entity.FileConfig) error {
	query := `
		INSERT INTO sales_leads.file_config (uuid, file_name, hubspot_owner, search_label, file_type, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (file_name)
		DO UPDATE SET
			hubspot_owner = EXCLUDED.hubspot_owner,
			search_label = EXCLUDED.search_label,
			file_type = EXCLUDED.file_type
	`

	for _, c := range configs {
		var fileType *string
		if c.FileType != "" {
			s := string(c.FileType)
			fileType = &s
		}
		if _, err := r.DB.ExecContext(ctx, query, c.UUID, c.FileName, nullString(c.Owner), nullString(c.SearchLabel), fileType); err != nil {
			return fmt.Errorf("upsert config %s: %w", c.FileName, err)
		}
	}
	return nil
}

// FindByUUID loads one config entry; used when building the output sheet
// title for a dispatch.
func (r *FileConfigRepository) FindByUUID(ctx context.Context, configUUID string) (*entity.FileConfig, error) {
	query := `
		SELECT uuid, file_name, hubspot_owner, search_label, file_type, created_at
		FROM sales_leads.file_config
		WHERE uuid = $1
	`

	var c entity.FileConfig
	var owner, label, fileType sql.NullString
	err := r.DB.QueryRowContext(ctx, query, configUUID).Scan(
		&c.UUID, &c.FileName, &owner, &label, &fileType, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Owner = owner.String
	c.SearchLabel = label.String
	if fileType.Valid {
		c.FileType = entity.FileType(fileType.String)
	}
	return &c, nil
}
