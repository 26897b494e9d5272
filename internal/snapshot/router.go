package snapshot

import (
	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

// Category names one logical slice of cached data a table change can touch.
type Category string

const (
	CatContractors Category = "contractors"
	CatSettings    Category = "settings"
	CatClients     Category = "clients"
	CatProjects    Category = "projects"
	CatRooms       Category = "rooms"
	CatWorkItems   Category = "workItems"
	CatInvoices    Category = "invoices"
	CatPriceLists  Category = "priceLists"
	CatPrefs       Category = "prefs"
)

// Routes maps table names to the categories they affect. It is injectable so
// the reducer can be exercised with synthetic tables in tests.
type Routes map[string][]Category

// DefaultRoutes is the production table mapping.
func DefaultRoutes() Routes {
	return Routes{
		contractors.Table:         {CatContractors},
		contractors.SettingsTable: {CatSettings},
		clients.Table:             {CatClients},
		projects.Table:            {CatProjects},
		rooms.Table:               {CatRooms},
		rooms.WorkItemsTable:      {CatWorkItems},
		invoices.Table:            {CatInvoices},
		pricelist.Table:           {CatPriceLists},
		"user_prefs":              {CatPrefs},
	}
}

// CategoriesAffected resolves a table to its category set; unknown tables
// affect nothing.
func (r Routes) CategoriesAffected(table string) []Category {
	return r[table]
}

// Affects reports whether any event in the batch touches the category.
func (r Routes) Affects(batch []remote.ChangeEvent, cat Category) bool {
	for _, ev := range batch {
		for _, c := range r.CategoriesAffected(ev.Table) {
			if c == cat {
				return true
			}
		}
	}
	return false
}
