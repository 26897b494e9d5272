package rooms

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
}

type Repo struct {
	writer Writer
	store  Store
}

func NewRepo(writer Writer, store Store) *Repo {
	return &Repo{writer: writer, store: store}
}

func (r *Repo) Create(ctx context.Context, room Room) (Room, error) {
	rec, err := r.writer.Insert(ctx, Table, room.ToRecord())
	if err != nil {
		return Room{}, fmt.Errorf("create room: %w", err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Rename(ctx context.Context, id, name string) (Room, error) {
	rec, err := r.writer.Update(ctx, Table, id, remote.Record{"name": name})
	if err != nil {
		return Room{}, fmt.Errorf("rename room %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.writer.Delete(ctx, Table, id); err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: Table, Record: remote.Record{"id": id}},
	})
	return nil
}

// AddItem appends a work item. The change event reaches the staleness pass,
// which flags the owning room for re-fetch on other sessions.
func (r *Repo) AddItem(ctx context.Context, item WorkItem) (WorkItem, error) {
	rec, err := r.writer.Insert(ctx, WorkItemsTable, item.ToRecord())
	if err != nil {
		return WorkItem{}, fmt.Errorf("add work item: %w", err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: WorkItemsTable, Record: rec},
	})
	return WorkItemFromRecord(rec), nil
}

func (r *Repo) UpdateItem(ctx context.Context, id string, patch remote.Record) (WorkItem, error) {
	rec, err := r.writer.Update(ctx, WorkItemsTable, id, patch)
	if err != nil {
		return WorkItem{}, fmt.Errorf("update work item %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: WorkItemsTable, Record: rec},
	})
	return WorkItemFromRecord(rec), nil
}

func (r *Repo) DeleteItem(ctx context.Context, id, roomID string) error {
	if err := r.writer.Delete(ctx, WorkItemsTable, id); err != nil {
		return fmt.Errorf("delete work item %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: WorkItemsTable, Record: remote.Record{"id": id, "room_id": roomID}},
	})
	return nil
}
