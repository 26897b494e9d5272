package pricelist

import (
	"context"
	"fmt"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

type Writer interface {
	Insert(ctx context.Context, table string, rec remote.Record) (remote.Record, error)
	Update(ctx context.Context, table, id string, patch remote.Record) (remote.Record, error)
	Delete(ctx context.Context, table, id string) error
}

type Store interface {
	ApplyBatch(ctx context.Context, batch []remote.ChangeEvent)
	PriceLists() []PriceList
	GeneralPriceList() PriceList
	ActiveContractorID() string
}

type Repo struct {
	writer Writer
	store  Store
}

func NewRepo(writer Writer, store Store) *Repo {
	return &Repo{writer: writer, store: store}
}

func (r *Repo) List() []PriceList {
	return r.store.PriceLists()
}

// General returns the active contractor's resolved general list, which may be
// the built-in default when none is stored.
func (r *Repo) General() PriceList {
	return r.store.GeneralPriceList()
}

func (r *Repo) Create(ctx context.Context, pl PriceList) (PriceList, error) {
	if pl.ContractorID == "" {
		pl.ContractorID = r.store.ActiveContractorID()
	}
	rec, err := r.writer.Insert(ctx, Table, pl.ToRecord())
	if err != nil {
		return PriceList{}, fmt.Errorf("create price list: %w", err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Update(ctx context.Context, id string, patch remote.Record) (PriceList, error) {
	rec, err := r.writer.Update(ctx, Table, id, patch)
	if err != nil {
		return PriceList{}, fmt.Errorf("update price list %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.writer.Delete(ctx, Table, id); err != nil {
		return fmt.Errorf("delete price list %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: Table, Record: remote.Record{"id": id}},
	})
	return nil
}

// Freeze stores a frozen copy of a list for one project and returns the new
// row, which the project then references by id.
func (r *Repo) Freeze(ctx context.Context, src PriceList, projectID string) (PriceList, error) {
	frozen := src
	frozen.ID = ""
	frozen.ProjectID = projectID
	frozen.General = false
	return r.Create(ctx, frozen)
}
