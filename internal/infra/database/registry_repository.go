package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// RegistryRepository is the read-only view onto the Shopify customer list
// maintained by the warehouse sync. Anyone in it is a paying customer and
// must never be re-contacted, regardless of ledger state.
type RegistryRepository struct {
	DB *sql.DB
}

func NewRegistryRepository(db *sql.DB) *RegistryRepository {
	return &RegistryRepository{DB: db}
}

// Contains reports whether a single email belongs to an existing customer.
func (r *RegistryRepository) Contains(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM dm_shopify.sales_customer_view
			WHERE LOWER(email) = $1
		)
	`
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, entity.NormalizeEmail(email)).Scan(&exists)
	return exists, err
}

// ExistingEmails is the batch variant used when deduping a whole file.
func (r *RegistryRepository) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(emails) == 0 {
		return existing, nil
	}

	query := `
		SELECT DISTINCT LOWER(email)
		FROM dm_shopify.sales_customer_view
		WHERE LOWER(email) = ANY($1)
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(emails))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		existing[email] = true
	}
	return existing, rows.Err()
}
