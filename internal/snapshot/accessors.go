package snapshot

import (
	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
)

// Entity accessors over the current snapshot value. Feature packages consume
// these through their own narrow interfaces rather than importing the store,
// keeping the dependency arrow pointing at the entity packages only.

func (st *Store) Contractors() []contractors.Contractor {
	return st.View().Contractors
}

func (st *Store) ActiveContractorID() string {
	return st.View().ActiveContractorID
}

func (st *Store) ActiveContractor() (contractors.Contractor, bool) {
	return st.View().ActiveContractor()
}

func (st *Store) Clients() []clients.Client {
	return st.View().Clients
}

func (st *Store) ClientByID(id string) (clients.Client, bool) {
	return st.View().ClientByID(id)
}

func (st *Store) ProjectByID(id string) (projects.Project, bool) {
	return st.View().ProjectByID(id)
}

// ActiveGroup returns the active contractor's category buckets.
func (st *Store) ActiveGroup() (projects.Group, bool) {
	snap := st.View()
	g, ok := snap.Groups[snap.ActiveContractorID]
	return g, ok
}

func (st *Store) Invoices() []invoices.Invoice {
	return st.View().Invoices
}

func (st *Store) InvoiceByID(id string) (invoices.Invoice, bool) {
	return st.View().InvoiceByID(id)
}

func (st *Store) PriceLists() []pricelist.PriceList {
	return st.View().PriceLists
}

func (st *Store) GeneralPriceList() pricelist.PriceList {
	return st.View().General
}

func (st *Store) FilterYear() int {
	return st.View().FilterYear
}
