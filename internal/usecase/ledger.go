package usecase

import (
	"context"
	"fmt"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// LedgerService answers "have we ever surfaced this person before?" across
// every source type, and records dispatch outcomes. It combines the
// tracking table with the read-only Shopify registry; the registry always
// wins over tracking history.
type LedgerService struct {
	Tracking TrackingStore
	Registry CustomerRegistry
}

func NewLedgerService(tracking TrackingStore, registry CustomerRegistry) *LedgerService {
	return &LedgerService{Tracking: tracking, Registry: registry}
}

// IsNewLead reports whether a single email has never been dispatched and is
// not an existing customer. Empty emails are never new.
func (s *LedgerService) IsNewLead(ctx context.Context, email string) (bool, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	customer, err := s.Registry.Contains(ctx, email)
	if err != nil {
		return false, NewTechnicalError("registry lookup", err)
	}
	if customer {
		return false, nil
	}

	posted, err := s.Tracking.HasPosted(ctx, email)
	if err != nil {
		return false, NewTechnicalError("tracking lookup", err)
	}
	return !posted, nil
}

// SelectForFile runs the new-lead selection for one file's batch, doing the
// registry and ledger lookups in bulk.
func (s *LedgerService) SelectForFile(ctx context.Context, file *entity.FileRecord, batch []entity.Lead) (DedupResult, error) {
	emails := make([]string, 0, len(batch))
	for _, l := range batch {
		if l.HasEmail() {
			emails = append(emails, entity.NormalizeEmail(l.Email))
		}
	}

	customers := map[string]bool{}
	posted := map[string]bool{}
	if len(emails) > 0 {
		var err error
		customers, err = s.Registry.ExistingEmails(ctx, emails)
		if err != nil {
			return DedupResult{}, NewTechnicalError("registry batch lookup", err)
		}
		posted, err = s.Tracking.PostedEmails(ctx, emails)
		if err != nil {
			return DedupResult{}, NewTechnicalError("tracking batch lookup", err)
		}
	}

	return SelectNewLeads(DedupInput{
		Batch:             batch,
		ExistingCustomers: customers,
		PostedEmails:      posted,
		Configured:        file.Configured(),
	}), nil
}

// MarkPosted records a dispatched lead. Safe to call twice for the same
// lead; the store keeps a single posted row per lead reference.
func (s *LedgerService) MarkPosted(ctx context.Context, lead entity.Lead) error {
	ref := entity.NewLeadRef(lead)
	if !ref.Valid() {
		return entity.ErrInvalidLeadRef
	}
	if err := s.Tracking.MarkPosted(ctx, ref, entity.NormalizeEmail(lead.Email)); err != nil {
		return NewTechnicalError(fmt.Sprintf("mark posted %s", lead.UUID), err)
	}
	return nil
}

// MarkShopifyCustomer records that a lead matched the customer registry.
// If the lead already has a posted row it is escalated in place, so the
// call order against MarkPosted does not matter.
func (s *LedgerService) MarkShopifyCustomer(ctx context.Context, lead entity.Lead) error {
	ref := entity.NewLeadRef(lead)
	if !ref.Valid() {
		return entity.ErrInvalidLeadRef
	}
	if err := s.Tracking.MarkShopifyCustomer(ctx, ref, entity.NormalizeEmail(lead.Email)); err != nil {
		return NewTechnicalError(fmt.Sprintf("mark shopify customer %s", lead.UUID), err)
	}
	return nil
}

// Metrics returns the per-file dispatch counters used in the Slack summary.
func (s *LedgerService) Metrics(ctx context.Context, fileUUID string) (entity.TrackingMetrics, error) {
	m, err := s.Tracking.Metrics(ctx, fileUUID)
	if err != nil {
		return entity.TrackingMetrics{}, NewTechnicalError("tracking metrics", err)
	}
	return m, nil
}
