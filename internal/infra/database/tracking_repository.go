package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// TrackingRepository is the storage side of the dispatch ledger. The
// at-most-once guarantees live in the partial unique indexes on
// sales_leads.tracking; every write here is a conditional insert or
// upsert, never read-then-write, so concurrent invocations cannot race
// between the duplicate check and the mark.
type TrackingRepository struct {
	DB *sql.DB
}

func NewTrackingRepository(db *sql.DB) *TrackingRepository {
	return &TrackingRepository{DB: db}
}

// Per-reference-column statements, selected by which side of the LeadRef
// is set. The conflict targets name the partial unique indexes. The posted
// inserts guard with NOT EXISTS on the reference itself: a lead that was
// already escalated to shopify_customer must stay escalated, so a late
// MarkPosted may not add a second row beside it.
const (
	insertPostedLead = `
		INSERT INTO sales_leads.tracking (uuid, lead_uuid, status, email_address, created_at)
		SELECT $1, $2, 'posted', $3, NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM sales_leads.tracking WHERE lead_uuid = $2
		)
		ON CONFLICT (lead_uuid) WHERE status = 'posted' AND lead_uuid IS NOT NULL DO NOTHING
	`
	insertPostedCity = `
		INSERT INTO sales_leads.tracking (uuid, city_search_lead_uuid, status, email_address, created_at)
		SELECT $1, $2, 'posted', $3, NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM sales_leads.tracking WHERE city_search_lead_uuid = $2
		)
		ON CONFLICT (city_search_lead_uuid) WHERE status = 'posted' AND city_search_lead_uuid IS NOT NULL DO NOTHING
	`
	escalateLead = `
		UPDATE sales_leads.tracking
		SET status = 'shopify_customer'
		WHERE lead_uuid = $1
	`
	escalateCity = `
		UPDATE sales_leads.tracking
		SET status = 'shopify_customer'
		WHERE city_search_lead_uuid = $1
	`
	insertCustomerLead = `
		INSERT INTO sales_leads.tracking (uuid, lead_uuid, status, email_address, created_at)
		VALUES ($1, $2, 'shopify_customer', $3, NOW())
		ON CONFLICT (lead_uuid) WHERE status = 'shopify_customer' AND lead_uuid IS NOT NULL DO NOTHING
	`
	insertCustomerCity = `
		INSERT INTO sales_leads.tracking (uuid, city_search_lead_uuid, status, email_address, created_at)
		VALUES ($1, $2, 'shopify_customer', $3, NOW())
		ON CONFLICT (city_search_lead_uuid) WHERE status = 'shopify_customer' AND city_search_lead_uuid IS NOT NULL DO NOTHING
	`
)

// MarkPosted records a dispatch. Idempotent, and a no-op when the lead
// reference already carries any ledger row: a repeat hits the partial
// unique index, an escalated row survives via the NOT EXISTS guard.
func (r *TrackingRepository) MarkPosted(ctx context.Context, ref entity.LeadRef, email string) error {
	if !ref.Valid() {
		return entity.ErrInvalidLeadRef
	}

	query, leadUUID := insertPostedLead, ref.LeadUUID
	if ref.CitySearchLeadUUID != "" {
		query, leadUUID = insertPostedCity, ref.CitySearchLeadUUID
	}

	if _, err := r.DB.ExecContext(ctx, query, uuid.New().String(), leadUUID, entity.NormalizeEmail(email)); err != nil {
		return fmt.Errorf("mark posted %s: %w", leadUUID, err)
	}
	return nil
}

// MarkShopifyCustomer escalates a lead's ledger row to shopify_customer,
// or creates one directly when the lead was never posted (e.g. backfilled
// conversions). Order-independent with MarkPosted: either sequence ends
// with one row in status shopify_customer.
func (r *TrackingRepository) MarkShopifyCustomer(ctx context.Context, ref entity.LeadRef, email string) error {
	if !ref.Valid() {
		return entity.ErrInvalidLeadRef
	}

	escalate, insert, leadUUID := escalateLead, insertCustomerLead, ref.LeadUUID
	if ref.CitySearchLeadUUID != "" {
		escalate, insert, leadUUID = escalateCity, insertCustomerCity, ref.CitySearchLeadUUID
	}

	res, err := r.DB.ExecContext(ctx, escalate, leadUUID)
	if err != nil {
		return fmt.Errorf("escalate %s: %w", leadUUID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	if _, err := r.DB.ExecContext(ctx, insert, uuid.New().String(), leadUUID, entity.NormalizeEmail(email)); err != nil {
		return fmt.Errorf("insert shopify_customer %s: %w", leadUUID, err)
	}
	return nil
}

// PostedEmails returns which of the given emails already carry a blocking
// entry, from ANY source type. This is the cross-source dedup lookup.
// shopify_customer blocks alongside posted: escalation replaces the posted
// row, and a converted lead stays non-dispatchable even if it later churns
// out of the registry view.
func (r *TrackingRepository) PostedEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	posted := make(map[string]bool)
	if len(emails) == 0 {
		return posted, nil
	}

	query := `
		SELECT DISTINCT email_address
		FROM sales_leads.tracking
		WHERE status IN ('posted', 'shopify_customer') AND email_address = ANY($1)
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
		posted[email] = true
	}
	return posted, rows.Err()
}

// HasPosted is the single-email variant used by IsNewLead.
func (r *TrackingRepository) HasPosted(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sales_leads.tracking
			WHERE status IN ('posted', 'shopify_customer') AND email_address = $1
		)
	`
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, entity.NormalizeEmail(email)).Scan(&exists)
	return exists, err
}

// Metrics aggregates a file's ledger rows for reporting. Advisory only;
// read-committed is fine.
func (r *TrackingRepository) Metrics(ctx context.Context, fileUUID string) (entity.TrackingMetrics, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE t.status = 'posted'),
			COUNT(*) FILTER (WHERE t.status = 'shopify_customer')
		FROM sales_leads.tracking t
		LEFT JOIN sales_leads.leads l ON l.uuid = t.lead_uuid
		LEFT JOIN sales_leads.city_search_enriched c ON c.uuid = t.city_search_lead_uuid
		WHERE COALESCE(l.drive_metadata_uuid, c.drive_metadata_uuid) = $1
	`
	var m entity.TrackingMetrics
	err := r.DB.QueryRowContext(ctx, query, fileUUID).Scan(&m.Posted, &m.ShopifyCustomers)
	return m, err
}
