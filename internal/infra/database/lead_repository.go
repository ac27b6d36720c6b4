package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// LeadRepository persists raw lead rows. The two lead shapes live in two
// tables with different column sets; the difference is confined to this
// closed enum-to-query mapping, never to interpolated identifiers, and
// everything above it works on []entity.Lead.
type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

type sourceQueries struct {
	insert      string
	selByFile   string
	countByFile string
}

var leadQueries = map[entity.LeadSource]sourceQueries{
	entity.LeadSourceZiSearch: {
		insert: `
			INSERT INTO sales_leads.leads
				(uuid, drive_metadata_uuid, email_address, first_name, last_name,
				 job_title, job_function, company_name, direct_phone_number, linkedin_contact_profile_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
		selByFile: `
			SELECT uuid, drive_metadata_uuid, email_address, first_name, last_name,
			       job_title, job_function, company_name, direct_phone_number, linkedin_contact_profile_url, created_at
			FROM sales_leads.leads
			WHERE drive_metadata_uuid = $1
			ORDER BY created_at, uuid
		`,
		countByFile: `SELECT COUNT(*) FROM sales_leads.leads WHERE drive_metadata_uuid = $1`,
	},
	entity.LeadSourceCitySearch: {
		insert: `
			INSERT INTO sales_leads.city_search_enriched
				(uuid, drive_metadata_uuid, email_address, first_name, last_name,
				 company_name, phone_1, website, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
		selByFile: `
			SELECT uuid, drive_metadata_uuid, email_address, first_name, last_name,
			       company_name, phone_1, website, created_at
			FROM sales_leads.city_search_enriched
			WHERE drive_metadata_uuid = $1
			ORDER BY created_at, uuid
		`,
		countByFile: `SELECT COUNT(*) FROM sales_leads.city_search_enriched WHERE drive_metadata_uuid = $1`,
	},
}

// InsertBatch persists one parsed file's rows inside a single transaction
// so a crash mid-load leaves the file cleanly unloaded, not half-loaded.
func (r *LeadRepository) InsertBatch(ctx context.Context, leads []entity.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lead batch: %w", err)
	}
	defer tx.Rollback()

	for _, l := range leads {
		q, ok := leadQueries[l.Source]
		if !ok {
			return fmt.Errorf("unknown lead source %q", l.Source)
		}

		var args []any
		if l.Source == entity.LeadSourceZiSearch {
			args = []any{
				l.UUID, l.FileUUID, nullString(l.Email), nullString(l.FirstName),
				nullString(l.LastName), nullString(l.JobTitle), nullString(l.JobFunction),
				nullString(l.Company), nullString(l.Phone), nullString(l.LinkedIn), l.CreatedAt,
			}
		} else {
			args = []any{
				l.UUID, l.FileUUID, nullString(l.Email), nullString(l.FirstName),
				nullString(l.LastName), nullString(l.Company), nullString(l.Phone),
				nullString(l.Website), l.CreatedAt,
			}
		}

		if _, err := tx.ExecContext(ctx, q.insert, args...); err != nil {
			return fmt.Errorf("insert lead %s: %w", l.UUID, err)
		}
	}

	return tx.Commit()
}

// BatchForFile loads every raw lead of one file, normalized into the
// common Lead shape.
func (r *LeadRepository) BatchForFile(ctx context.Context, fileUUID string, source entity.LeadSource) ([]entity.Lead, error) {
	q, ok := leadQueries[source]
	if !ok {
		return nil, fmt.Errorf("unknown lead source %q", source)
	}

	rows, err := r.DB.QueryContext(ctx, q.selByFile, fileUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []entity.Lead
	for rows.Next() {
		l := entity.Lead{Source: source}
		var email, first, last, company, phone sql.NullString

		if source == entity.LeadSourceZiSearch {
			var title, function, linkedin sql.NullString
			err = rows.Scan(&l.UUID, &l.FileUUID, &email, &first, &last,
				&title, &function, &company, &phone, &linkedin, &l.CreatedAt)
			l.JobTitle = title.String
			l.JobFunction = function.String
			l.LinkedIn = linkedin.String
		} else {
			var website sql.NullString
			err = rows.Scan(&l.UUID, &l.FileUUID, &email, &first, &last,
				&company, &phone, &website, &l.CreatedAt)
			l.Website = website.String
		}
		if err != nil {
			return nil, err
		}

		l.Email = email.String
		l.FirstName = first.String
		l.LastName = last.String
		l.Company = company.String
		l.Phone = phone.String
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// CountForFile is the "already loaded" guard for re-entrant processing.
func (r *LeadRepository) CountForFile(ctx context.Context, fileUUID string, source entity.LeadSource) (int, error) {
	q, ok := leadQueries[source]
	if !ok {
		return 0, fmt.Errorf("unknown lead source %q", source)
	}

	var n int
	err := r.DB.QueryRowContext(ctx, q.countByFile, fileUUID).Scan(&n)
	return n, err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
