package usecase

import (
	"sort"
	"strings"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// DedupInput is one file's raw batch plus the lookups the selection needs.
// ExistingCustomers and PostedEmails are keyed by normalized email.
type DedupInput struct {
	Batch             []entity.Lead
	ExistingCustomers map[string]bool
	PostedEmails      map[string]bool
	Configured        bool
}

// DedupResult splits the batch into the leads to dispatch, the leads that
// turned out to be existing Shopify customers, and skip counters for the
// notification summary.
type DedupResult struct {
	NewLeads  []entity.Lead
	Customers []entity.Lead

	SkippedNoEmail   int
	SkippedCustomer  int
	SkippedPosted    int
	SkippedBatchDupe int
	Withheld         bool
}

// SelectNewLeads decides which leads in a batch have never been seen before.
// Selection runs in a fixed order:
//
//  1. collapse duplicate emails inside the batch, keeping the most recently
//     created row (lowest UUID on a timestamp tie, so reruns pick the same
//     survivor)
//  2. drop leads without an email address
//  3. drop leads already present in the Shopify customer registry
//  4. drop leads whose email already has a posted tracking entry, from any
//     source
//  5. if the file has no config entry, withhold the survivors entirely
//
// Registry and ledger checks run before the config gate on purpose: a lead
// blocked only by a missing config is still brand new, and must surface as
// such once the config arrives.
func SelectNewLeads(in DedupInput) DedupResult {
	var out DedupResult

	collapsed, dupes := collapseByEmail(in.Batch)
	out.SkippedBatchDupe = dupes

	var candidates []entity.Lead
	for _, l := range collapsed {
		if !l.HasEmail() {
			out.SkippedNoEmail++
			continue
		}
		email := entity.NormalizeEmail(l.Email)
		if in.ExistingCustomers[email] {
			out.SkippedCustomer++
			out.Customers = append(out.Customers, l)
			continue
		}
		if in.PostedEmails[email] {
			out.SkippedPosted++
			continue
		}
		candidates = append(candidates, l)
	}

	if !in.Configured {
		out.Withheld = true
		return out
	}

	out.NewLeads = candidates
	return out
}

// collapseByEmail keeps one lead per normalized email. Leads without an
// email are passed through untouched; the empty-email rule is a separate
// step with its own counter.
func collapseByEmail(batch []entity.Lead) ([]entity.Lead, int) {
	keep := make(map[string]entity.Lead, len(batch))
	order := make([]string, 0, len(batch))
	var noEmail []entity.Lead
	dupes := 0

	for _, l := range batch {
		if !l.HasEmail() {
			noEmail = append(noEmail, l)
			continue
		}
		email := entity.NormalizeEmail(l.Email)
		prev, seen := keep[email]
		if !seen {
			keep[email] = l
			order = append(order, email)
			continue
		}
		dupes++
		if l.CreatedAt.After(prev.CreatedAt) {
			keep[email] = l
		} else if l.CreatedAt.Equal(prev.CreatedAt) && strings.Compare(l.UUID, prev.UUID) < 0 {
			keep[email] = l
		}
	}

	sort.Strings(order)
	out := make([]entity.Lead, 0, len(order)+len(noEmail))
	for _, email := range order {
		out = append(out, keep[email])
	}
	out = append(out, noEmail...)
	return out, dupes
}
