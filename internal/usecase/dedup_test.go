package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quickmailhq/leadsync/internal/entity"
)

func lead(uuid, email string, createdAt time.Time) entity.Lead {
	return entity.Lead{
		UUID:      uuid,
		FileUUID:  "file-1",
		Source:    entity.LeadSourceZiSearch,
		Email:     email,
		CreatedAt: createdAt,
	}
}

func TestSelectNewLeadsKeepsUnseenLeads(t *testing.T) {
	now := time.Now()

	result := SelectNewLeads(DedupInput{
		Batch: []entity.Lead{
			lead("a", "ana@corp.com", now),
			lead("b", "bob@corp.com", now),
		},
		ExistingCustomers: map[string]bool{},
		PostedEmails:      map[string]bool{},
		Configured:        true,
	})

	assert.Len(t, result.NewLeads, 2)
	assert.Empty(t, result.Customers)
	assert.False(t, result.Withheld)
}

func TestSelectNewLeadsCollapsesBatchDuplicates(t *testing.T) {
	now := time.Now()

	result := SelectNewLeads(DedupInput{
		Batch: []entity.Lead{
			lead("old", "ana@corp.com", now.Add(-time.Hour)),
			lead("new", "Ana@Corp.com", now),
		},
		ExistingCustomers: map[string]bool{},
		PostedEmails:      map[string]bool{},
		Configured:        true,
	})

	assert.Len(t, result.NewLeads, 1)
	assert.Equal(t, "new", result.NewLeads[0].UUID)
	assert.Equal(t, 1, result.SkippedBatchDupe)
}

func TestSelectNewLeadsTieBreaksOnLowestUUID(t *testing.T) {
	now := time.Now()

	// Same timestamp twice: the survivor must not depend on input order.
	forward := SelectNewLeads(DedupInput{
		Batch:      []entity.Lead{lead("aaa", "x@corp.com", now), lead("bbb", "x@corp.com", now)},
		Configured: true,
	})
	reversed := SelectNewLeads(DedupInput{
		Batch:      []entity.Lead{lead("bbb", "x@corp.com", now), lead("aaa", "x@corp.com", now)},
		Configured: true,
	})

	assert.Equal(t, "aaa", forward.NewLeads[0].UUID)
	assert.Equal(t, "aaa", reversed.NewLeads[0].UUID)
}

func TestSelectNewLeadsDropsEmptyEmails(t *testing.T) {
	now := time.Now()

	result := SelectNewLeads(DedupInput{
		Batch: []entity.Lead{
			lead("a", "", now),
			lead("b", "   ", now),
			lead("c", "ok@corp.com", now),
		},
		Configured: true,
	})

	assert.Len(t, result.NewLeads, 1)
	assert.Equal(t, "c", result.NewLeads[0].UUID)
	assert.Equal(t, 2, result.SkippedNoEmail)
}

func TestSelectNewLeadsRegistryWins(t *testing.T) {
	now := time.Now()

	result := SelectNewLeads(DedupInput{
		Batch: []entity.Lead{
			lead("a", "customer@corp.com", now),
			lead("b", "fresh@corp.com", now),
		},
		ExistingCustomers: map[string]bool{"customer@corp.com": true},
		PostedEmails:      map[string]bool{},
		Configured:        true,
	})

	assert.Len(t, result.NewLeads, 1)
	assert.Equal(t, "b", result.NewLeads[0].UUID)
	assert.Len(t, result.Customers, 1)
	assert.Equal(t, "a", result.Customers[0].UUID)
	assert.Equal(t, 1, result.SkippedCustomer)
}

func TestSelectNewLeadsDropsAlreadyPosted(t *testing.T) {
	now := time.Now()

	result := SelectNewLeads(DedupInput{
		Batch: []entity.Lead{
			lead("a", "seen@corp.com", now),
			lead("b", "fresh@corp.com", now),
		},
		ExistingCustomers: map[string]bool{},
		PostedEmails:      map[string]bool{"seen@corp.com": true},
		Configured:        true,
	})

	assert.Len(t, result.NewLeads, 1)
	assert.Equal(t, "b", result.NewLeads[0].UUID)
	assert.Equal(t, 1, result.SkippedPosted)
}

func TestSelectNewLeadsRegistryBeatsTracking(t *testing.T) {
	now := time.Now()

	// An email in both the registry and the ledger counts as a customer,
	// not as a previously posted lead.
	result := SelectNewLeads(DedupInput{
		Batch:             []entity.Lead{lead("a", "both@corp.com", now)},
		ExistingCustomers: map[string]bool{"both@corp.com": true},
		PostedEmails:      map[string]bool{"both@corp.com": true},
		Configured:        true,
	})

	assert.Empty(t, result.NewLeads)
	assert.Equal(t, 1, result.SkippedCustomer)
	assert.Equal(t, 0, result.SkippedPosted)
}

func TestSelectNewLeadsWithholdsUnconfiguredFile(t *testing.T) {
	now := time.Now()

	result := SelectNewLeads(DedupInput{
		Batch: []entity.Lead{
			lead("a", "fresh@corp.com", now),
			lead("b", "customer@corp.com", now),
		},
		ExistingCustomers: map[string]bool{"customer@corp.com": true},
		Configured:        false,
	})

	// Withholding hides the new leads, but the registry and ledger checks
	// already ran: the skip counters still reflect them.
	assert.True(t, result.Withheld)
	assert.Empty(t, result.NewLeads)
	assert.Equal(t, 1, result.SkippedCustomer)
}

func TestSelectNewLeadsCrossSource(t *testing.T) {
	now := time.Now()

	cityLead := entity.Lead{
		UUID:      "c1",
		FileUUID:  "file-2",
		Source:    entity.LeadSourceCitySearch,
		Email:     "shared@corp.com",
		CreatedAt: now,
	}

	// The email was posted from a zi-search file; the same person arriving
	// in a city-search file is not new.
	result := SelectNewLeads(DedupInput{
		Batch:        []entity.Lead{cityLead},
		PostedEmails: map[string]bool{"shared@corp.com": true},
		Configured:   true,
	})

	assert.Empty(t, result.NewLeads)
	assert.Equal(t, 1, result.SkippedPosted)
}
