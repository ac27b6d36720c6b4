package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// FileRepository persists drive_metadata rows: one per source file ever
// sighted in the watched folder tree.
type FileRepository struct {
	DB *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{DB: db}
}

const fileColumns = `
	uuid, id, name, file_extension, owner_email, file_type, config_file_uuid,
	has_been_processed, has_posted_on_slack, drive_created_time,
	drive_modified_time, created_at, updated_at
`

// RegisterNew inserts freshly discovered files, skipping any Drive id the
// table already knows. Returns the number of rows actually inserted, so
// re-running discovery over the same window is a no-op.
func (r *FileRepository) RegisterNew(ctx context.Context, files []*entity.FileRecord) (int, error) {
	query := `
		INSERT INTO sales_leads.drive_metadata
			(uuid, id, name, file_extension, owner_email, drive_created_time, drive_modified_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`

	inserted := 0
	for _, f := range files {
		res, err := r.DB.ExecContext(ctx, query,
			f.UUID,
			f.DriveID,
			f.Name,
			f.FileExtension,
			f.OwnerEmail,
			f.DriveCreatedTime,
			f.DriveModifiedTime,
		)
		if err != nil {
			return inserted, fmt.Errorf("register file %s: %w", f.DriveID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *FileRepository) FindByDriveID(ctx context.Context, driveID string) (*entity.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM sales_leads.drive_metadata WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, driveID))
}

func (r *FileRepository) FindByUUID(ctx context.Context, fileUUID string) (*entity.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM sales_leads.drive_metadata WHERE uuid = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, fileUUID))
}

// Unclassified returns unprocessed files still missing a file type, so
// discovery can resolve their parent folders.
func (r *FileRepository) Unclassified(ctx context.Context) ([]*entity.FileRecord, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM sales_leads.drive_metadata
		WHERE file_type IS NULL AND has_been_processed = FALSE
	`
	return r.queryMany(ctx, query)
}

// SetFileType records the classification derived from the parent folder.
func (r *FileRepository) SetFileType(ctx context.Context, fileUUID string, ft entity.FileType) error {
	query := `
		UPDATE sales_leads.drive_metadata
		SET file_type = $2, updated_at = NOW()
		WHERE uuid = $1
	`
	_, err := r.DB.ExecContext(ctx, query, fileUUID, string(ft))
	return err
}

// AttachConfigs links config entries to files by file name (with or
// without extension). Returns how many files picked up a config.
func (r *FileRepository) AttachConfigs(ctx context.Context) (int64, error) {
	query := `
		UPDATE sales_leads.drive_metadata dm
		SET config_file_uuid = fc.uuid, updated_at = NOW()
		FROM sales_leads.file_config fc
		WHERE dm.config_file_uuid IS NULL
		  AND (fc.file_name = dm.name OR fc.file_name = split_part(dm.name, '.', 1))
	`
	res, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MissingConfigUnnotified returns unconfigured files whose one-time
// missing-config notice has not fired. NULL (not false) marks the
// never-notified state.
func (r *FileRepository) MissingConfigUnnotified(ctx context.Context) ([]*entity.FileRecord, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM sales_leads.drive_metadata
		WHERE config_file_uuid IS NULL
		  AND has_been_processed = FALSE
		  AND has_posted_on_slack IS NULL
	`
	return r.queryMany(ctx, query)
}

// MarkNotified flips the one-time notice flag. Never reset.
func (r *FileRepository) MarkNotified(ctx context.Context, fileUUID string) error {
	query := `
		UPDATE sales_leads.drive_metadata
		SET has_posted_on_slack = TRUE, updated_at = NOW()
		WHERE uuid = $1
	`
	_, err := r.DB.ExecContext(ctx, query, fileUUID)
	return err
}

// MarkProcessed is the terminal state transition; monotonic false→true.
func (r *FileRepository) MarkProcessed(ctx context.Context, fileUUID string) error {
	query := `
		UPDATE sales_leads.drive_metadata
		SET has_been_processed = TRUE, updated_at = NOW()
		WHERE uuid = $1
	`
	_, err := r.DB.ExecContext(ctx, query, fileUUID)
	return err
}

// Dispatchable returns classified, configured, unprocessed files — the set
// the redispatch worker re-enqueues (covers configs that arrive after
// discovery already ran).
func (r *FileRepository) Dispatchable(ctx context.Context) ([]*entity.FileRecord, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM sales_leads.drive_metadata
		WHERE has_been_processed = FALSE
		  AND file_type IS NOT NULL
		  AND config_file_uuid IS NOT NULL
	`
	return r.queryMany(ctx, query)
}

func (r *FileRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.FileRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*entity.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *FileRepository) scanOne(row *sql.Row) (*entity.FileRecord, error) {
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*entity.FileRecord, error) {
	var f entity.FileRecord
	var ext, owner, fileType, configUUID sql.NullString
	var notified sql.NullBool
	var driveCreated, driveModified sql.NullTime

	err := row.Scan(
		&f.UUID,
		&f.DriveID,
		&f.Name,
		&ext,
		&owner,
		&fileType,
		&configUUID,
		&f.Processed,
		&notified,
		&driveCreated,
		&driveModified,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.FileExtension = ext.String
	f.OwnerEmail = owner.String
	if fileType.Valid {
		f.FileType = entity.FileType(fileType.String)
	}
	if configUUID.Valid {
		f.ConfigUUID = &configUUID.String
	}
	if notified.Valid {
		f.NotifiedMissingConfig = &notified.Bool
	}
	f.DriveCreatedTime = driveCreated.Time
	f.DriveModifiedTime = driveModified.Time

	return &f, nil
}
