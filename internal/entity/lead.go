package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadSource selects which raw table and column projection a lead came
// from. Two shapes exist: ZoomInfo exports land in sales_leads.leads,
// city-search exports (plain or enriched) land in
// sales_leads.city_search_enriched. Both reduce to the same identity key:
// the email address.
type LeadSource string

const (
	LeadSourceZiSearch   LeadSource = "zi_search"
	LeadSourceCitySearch LeadSource = "city_search"
)

// LeadSource maps a file type onto the raw table its rows belong to.
func (ft FileType) LeadSource() LeadSource {
	if ft == FileTypeZiSearch {
		return LeadSourceZiSearch
	}
	return LeadSourceCitySearch
}

// Lead is one contact pulled from a source file, already normalized out of
// the spreadsheet's raw column soup.
type Lead struct {
	UUID        string     `json:"uuid"`
	FileUUID    string     `json:"file_uuid"`
	Source      LeadSource `json:"source"`
	Email       string     `json:"email_address"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	JobTitle    string     `json:"job_title,omitempty"`
	JobFunction string     `json:"job_function,omitempty"`
	Company     string     `json:"company_name,omitempty"`
	Phone       string     `json:"phone,omitempty"` // resolved through the per-source fallback chain
	LinkedIn    string     `json:"linkedin_contact_profile_url,omitempty"`
	Website     string     `json:"website,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewLead assigns identity and ingestion time to a parsed row.
func NewLead(fileUUID string, source LeadSource) Lead {
	return Lead{
		UUID:      uuid.New().String(),
		FileUUID:  fileUUID,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// HasEmail reports whether the lead carries a usable dedup key. A lead
// without one can never be proven non-duplicate and is permanently
// excluded from dispatch.
func (l Lead) HasEmail() bool {
	return strings.TrimSpace(l.Email) != ""
}

// NormalizeEmail is the canonical form used everywhere the email acts as
// an identity key: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
