package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

type Writer interface {
	Insert(ctx context.Context, table string, rec remote.Record) (remote.Record, error)
	Update(ctx context.Context, table, id string, patch remote.Record) (remote.Record, error)
	Upsert(ctx context.Context, table string, rec remote.Record, onConflict string) (remote.Record, error)
	Delete(ctx context.Context, table, id string) error
}

type Store interface {
	ApplyBatch(ctx context.Context, batch []remote.ChangeEvent)
	Invoices() []Invoice
	InvoiceByID(id string) (Invoice, bool)
	ActiveContractor() (contractors.Contractor, bool)
	ProjectByID(id string) (projects.Project, bool)
}

type Repo struct {
	writer Writer
	store  Store
}

func NewRepo(writer Writer, store Store) *Repo {
	return &Repo{writer: writer, store: store}
}

// List returns the loaded invoices, which the snapshot keeps scoped to the
// active contractor and filter year.
func (r *Repo) List() []Invoice {
	return r.store.Invoices()
}

func (r *Repo) Get(id string) (Invoice, bool) {
	return r.store.InvoiceByID(id)
}

// Issue freezes and creates an invoice. The number comes from the active
// contractor's settings (prefix, issue year, running sequence); totals are
// computed once here and stored, never recomputed for display.
func (r *Repo) Issue(ctx context.Context, inv Invoice) (Invoice, error) {
	active, ok := r.store.ActiveContractor()
	if !ok {
		return Invoice{}, fmt.Errorf("no active contractor")
	}
	if inv.ContractorID == "" {
		inv.ContractorID = active.ID
	}

	settings := active.Settings
	if inv.MaturityDays == 0 {
		inv.MaturityDays = settings.MaturityDays
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = time.Now().UTC()
	}
	inv.DueDate = inv.IssueDate.AddDate(0, 0, inv.MaturityDays)

	if inv.Number == "" {
		inv.Number = FormatNumber(settings.InvoicePrefix, inv.IssueDate.Year(), settings.NextInvoiceSeq+1)
	}

	if inv.PriceWithoutVAT == nil {
		var net float64
		for _, it := range inv.Items {
			net += it.Quantity * it.Price
		}
		vat := net * settings.VATRate
		inv.PriceWithoutVAT = &net
		inv.CumulativeVAT = &vat
	}

	rec, err := r.writer.Insert(ctx, Table, inv.ToRecord())
	if err != nil {
		return Invoice{}, fmt.Errorf("issue invoice: %w", err)
	}

	// advance the sequence; a failure here leaves a gap, never a duplicate
	settings.NextInvoiceSeq++
	seqRec, err := r.writer.Upsert(ctx, contractors.SettingsTable, settings.ToRecord(active.ID), "contractor_id")
	if err != nil {
		return Invoice{}, fmt.Errorf("advance invoice sequence: %w", err)
	}

	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: Table, Record: rec},
		{Type: remote.EventUpdate, Table: contractors.SettingsTable, Record: seqRec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Update(ctx context.Context, id string, patch remote.Record) (Invoice, error) {
	rec, err := r.writer.Update(ctx, Table, id, patch)
	if err != nil {
		return Invoice{}, fmt.Errorf("update invoice %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.writer.Delete(ctx, Table, id); err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: Table, Record: remote.Record{"id": id}},
	})
	return nil
}

// DisplayTotal resolves the amount shown for an invoice: stored figures win,
// legacy rows recompute from the referenced project at the active VAT rate.
func (r *Repo) DisplayTotal(inv Invoice) float64 {
	vatRate := contractors.DefaultSettings().VATRate
	if active, ok := r.store.ActiveContractor(); ok {
		vatRate = active.Settings.VATRate
	}
	var project *projects.Project
	if inv.ProjectID != "" {
		if p, ok := r.store.ProjectByID(inv.ProjectID); ok {
			project = &p
		}
	}
	return Total(inv, project, vatRate)
}

// FormatNumber renders an invoice number like "FA-2026-0007".
func FormatNumber(prefix string, year, seq int) string {
	if prefix == "" {
		prefix = "FA"
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}
