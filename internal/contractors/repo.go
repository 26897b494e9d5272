package contractors

import (
	"context"
	"fmt"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

// Writer is the slice of the remote client the repo needs for mutations.
type Writer interface {
	Insert(ctx context.Context, table string, rec remote.Record) (remote.Record, error)
	Update(ctx context.Context, table, id string, patch remote.Record) (remote.Record, error)
	Upsert(ctx context.Context, table string, rec remote.Record, onConflict string) (remote.Record, error)
	Delete(ctx context.Context, table, id string) error
}

// Store is the slice of the session snapshot the repo reads and patches.
type Store interface {
	ApplyBatch(ctx context.Context, batch []remote.ChangeEvent)
	Contractors() []Contractor
	SwitchContractor(ctx context.Context, userID, contractorID string) error
}

// Repo writes contractor rows through the remote service and feeds the
// returned representation straight back into the snapshot store, so the
// caller sees its own write before the change feed echoes it.
type Repo struct {
	writer Writer
	store  Store
}

func NewRepo(writer Writer, store Store) *Repo {
	return &Repo{writer: writer, store: store}
}

func (r *Repo) List() []Contractor {
	return r.store.Contractors()
}

func (r *Repo) Create(ctx context.Context, c Contractor) (Contractor, error) {
	rec, err := r.writer.Insert(ctx, Table, c.ToRecord())
	if err != nil {
		return Contractor{}, fmt.Errorf("create contractor: %w", err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Update(ctx context.Context, id string, patch remote.Record) (Contractor, error) {
	rec, err := r.writer.Update(ctx, Table, id, patch)
	if err != nil {
		return Contractor{}, fmt.Errorf("update contractor %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.writer.Delete(ctx, Table, id); err != nil {
		return fmt.Errorf("delete contractor %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: Table, Record: remote.Record{"id": id}},
	})
	return nil
}

// Switch makes the contractor the active one and reloads the snapshot
// scoped to it.
func (r *Repo) Switch(ctx context.Context, userID, contractorID string) error {
	return r.store.SwitchContractor(ctx, userID, contractorID)
}

// SaveSettings upserts the contractor's settings row keyed by contractor_id.
func (r *Repo) SaveSettings(ctx context.Context, contractorID string, s Settings) (Settings, error) {
	rec, err := r.writer.Upsert(ctx, SettingsTable, s.ToRecord(contractorID), "contractor_id")
	if err != nil {
		return Settings{}, fmt.Errorf("save settings of contractor %s: %w", contractorID, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: SettingsTable, Record: rec},
	})
	return SettingsFromRecord(rec), nil
}
