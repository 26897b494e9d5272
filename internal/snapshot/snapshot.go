// Package snapshot is the process-wide synchronized view of a contractor's
// business data: loaded once per session, patched in place by change
// notifications, reset to defaults on logout.
package snapshot

import (
	"time"

	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
)

// Snapshot is the full in-memory state for one session. Values are treated as
// immutable once published: every transition builds a new Snapshot and only
// swaps the pointer, so readers never observe a half-applied batch.
type Snapshot struct {
	UserID string

	Contractors        []contractors.Contractor
	ActiveContractorID string
	FilterYear         int

	Clients  []clients.Client
	Projects []projects.Project        // flat, canonical
	Groups   map[string]projects.Group // derived per-contractor buckets
	Invoices []invoices.Invoice

	PriceLists []pricelist.PriceList
	General    pricelist.PriceList

	LoadedAt time.Time
}

// Default is the empty-but-functional fallback state: no entities, current
// filter year, built-in general price list.
func Default() Snapshot {
	return Snapshot{
		FilterYear: time.Now().Year(),
		Groups:     map[string]projects.Group{},
		General:    pricelist.Default(),
	}
}

func (s Snapshot) ActiveContractor() (contractors.Contractor, bool) {
	for _, c := range s.Contractors {
		if c.ID == s.ActiveContractorID {
			return c, true
		}
	}
	return contractors.Contractor{}, false
}

func (s Snapshot) ProjectByID(id string) (projects.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return projects.Project{}, false
}

func (s Snapshot) ClientByID(id string) (clients.Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return clients.Client{}, false
}

func (s Snapshot) InvoiceByID(id string) (invoices.Invoice, bool) {
	for _, inv := range s.Invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return invoices.Invoice{}, false
}

// EffectivePriceList resolves the list a project prices against, using the
// snapshot's loaded lists and general fallback.
func (s Snapshot) EffectivePriceList(p projects.Project) pricelist.PriceList {
	return projects.EffectivePriceList(p, s.PriceLists, s.General)
}

// rebuildClientProjects re-derives each client's denormalized project list by
// filtering loaded projects, discarding whatever the wire rows embedded.
func rebuildClientProjects(cls []clients.Client, prjs []projects.Project) []clients.Client {
	out := make([]clients.Client, len(cls))
	for i, c := range cls {
		c.Projects = nil
		for _, p := range prjs {
			if p.ClientID != "" && p.ClientID == c.ID {
				c.Projects = append(c.Projects, clients.ProjectSummary{
					ID:       p.ID,
					Name:     p.Name,
					Category: string(p.Category),
					Archived: p.Archived,
				})
			}
		}
		out[i] = c
	}
	return out
}
