package entity

import (
	"errors"
	"time"
)

// TrackingStatus is the status_enum vocabulary of sales_leads.tracking.
// The pipeline only ever writes posted and shopify_customer; the other
// values exist for ad-hoc backfills.
type TrackingStatus string

const (
	StatusPosted          TrackingStatus = "posted"
	StatusEmailed         TrackingStatus = "emailed"
	StatusShopifyCustomer TrackingStatus = "shopify_customer"
	StatusDuplicateEntry  TrackingStatus = "duplicate_entry"
)

// LeadRef points a tracking entry at exactly one raw lead row: either a
// zi-search lead or a city-search lead, never both.
type LeadRef struct {
	LeadUUID           string
	CitySearchLeadUUID string
}

// NewLeadRef builds the reference for a lead based on its source table.
func NewLeadRef(l Lead) LeadRef {
	if l.Source == LeadSourceZiSearch {
		return LeadRef{LeadUUID: l.UUID}
	}
	return LeadRef{CitySearchLeadUUID: l.UUID}
}

// Valid reports whether exactly one side of the reference is set.
func (r LeadRef) Valid() bool {
	return (r.LeadUUID == "") != (r.CitySearchLeadUUID == "")
}

var ErrInvalidLeadRef = errors.New("tracking entry must reference exactly one lead")

// TrackingEntry is one row of the append-only dispatch ledger. The email
// address is denormalized onto the row so cross-source duplicate checks
// are a single indexed lookup.
type TrackingEntry struct {
	UUID      string         `json:"uuid"`
	Ref       LeadRef        `json:"-"`
	Status    TrackingStatus `json:"status"`
	Email     string         `json:"email_address"`
	CreatedAt time.Time      `json:"created_at"`
}

// TrackingMetrics is the advisory per-file aggregate reported to Slack
// after a dispatch.
type TrackingMetrics struct {
	Posted           int `json:"posted"`
	ShopifyCustomers int `json:"shopify_customers"`
}
