// Package invoices holds issued invoices. Line items and computed totals are
// frozen at creation; stored totals are authoritative over any later
// recomputation from project data.
package invoices

import (
	"encoding/json"
	"log"
	"time"

	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

const Table = "invoices"

type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

type Invoice struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	ClientID     string `json:"client_id"`
	// ProjectID is empty for standalone invoices.
	ProjectID string `json:"project_id,omitempty"`
	Number    string `json:"number"`

	Items []Item `json:"items"`

	// Stored totals frozen at creation. Nil on legacy rows, which fall back
	// to recomputation from the referenced project.
	PriceWithoutVAT *float64 `json:"price_without_vat,omitempty"`
	CumulativeVAT   *float64 `json:"cumulative_vat,omitempty"`

	MaturityDays int       `json:"maturity_days"`
	IssueDate    time.Time `json:"issue_date"`
	DueDate      time.Time `json:"due_date"`

	CreatedAt time.Time `json:"created_at"`
}

// FromRecord maps a wire row. The issue date prefers the explicit field over
// the creation timestamp; the due date is issue date plus maturity days.
func FromRecord(rec remote.Record) Invoice {
	inv := Invoice{
		ID:              rec.ID(),
		ContractorID:    rec.String("contractor_id"),
		ClientID:        rec.String("client_id"),
		ProjectID:       rec.String("project_id"),
		Number:          rec.String("number"),
		PriceWithoutVAT: rec.FloatPtr("price_without_vat"),
		CumulativeVAT:   rec.FloatPtr("cumulative_vat"),
		MaturityDays:    rec.Int("maturity_days"),
		CreatedAt:       rec.Time("created_at"),
	}

	if raw := rec.RawJSON("items"); raw != nil {
		if err := json.Unmarshal(raw, &inv.Items); err != nil {
			log.Printf("Warning: malformed items blob on invoice %s, ignoring: %v", inv.ID, err)
			inv.Items = nil
		}
	}

	inv.IssueDate = rec.Time("issue_date")
	if inv.IssueDate.IsZero() {
		inv.IssueDate = inv.CreatedAt
	}
	inv.DueDate = inv.IssueDate.AddDate(0, 0, inv.MaturityDays)

	return inv
}

func (inv Invoice) ToRecord() remote.Record {
	rec := remote.Record{
		"contractor_id": inv.ContractorID,
		"client_id":     inv.ClientID,
		"number":        inv.Number,
		"items":         inv.Items,
		"maturity_days": inv.MaturityDays,
	}
	if inv.ID != "" {
		rec["id"] = inv.ID
	}
	if inv.ProjectID != "" {
		rec["project_id"] = inv.ProjectID
	}
	if inv.PriceWithoutVAT != nil {
		rec["price_without_vat"] = *inv.PriceWithoutVAT
	}
	if inv.CumulativeVAT != nil {
		rec["cumulative_vat"] = *inv.CumulativeVAT
	}
	if !inv.IssueDate.IsZero() {
		rec["issue_date"] = inv.IssueDate.Format(time.RFC3339)
	}
	return rec
}

// StoredTotal returns the frozen total when the invoice carries stored
// figures. ok is false on legacy rows without them.
func (inv Invoice) StoredTotal() (total float64, ok bool) {
	if inv.PriceWithoutVAT == nil || inv.CumulativeVAT == nil {
		return 0, false
	}
	return *inv.PriceWithoutVAT + *inv.CumulativeVAT, true
}

// Total resolves the displayed amount: stored figures win; legacy rows
// recompute from the referenced project's rooms with the given VAT rate.
func Total(inv Invoice, project *projects.Project, vatRate float64) float64 {
	if total, ok := inv.StoredTotal(); ok {
		return total
	}
	if project == nil {
		var sum float64
		for _, it := range inv.Items {
			sum += it.Quantity * it.Price
		}
		return sum * (1 + vatRate)
	}
	return project.Total() * (1 + vatRate)
}
