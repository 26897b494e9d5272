package clients

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
	Clients() []Client
	ClientByID(id string) (Client, bool)
	ActiveContractorID() string
}

type Repo struct {
	writer Writer
	store  Store
}

func NewRepo(writer Writer, store Store) *Repo {
	return &Repo{writer: writer, store: store}
}

func (r *Repo) List() []Client {
	return r.store.Clients()
}

func (r *Repo) Get(id string) (Client, bool) {
	return r.store.ClientByID(id)
}

func (r *Repo) Create(ctx context.Context, cl Client) (Client, error) {
	if cl.ContractorID == "" {
		cl.ContractorID = r.store.ActiveContractorID()
	}
	rec, err := r.writer.Insert(ctx, Table, cl.ToRecord())
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Update(ctx context.Context, id string, patch remote.Record) (Client, error) {
	rec, err := r.writer.Update(ctx, Table, id, patch)
	if err != nil {
		return Client{}, fmt.Errorf("update client %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.writer.Delete(ctx, Table, id); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: Table, Record: remote.Record{"id": id}},
	})
	return nil
}
