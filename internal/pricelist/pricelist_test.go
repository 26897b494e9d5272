package pricelist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

func TestCost(t *testing.T) {
	t.Run("plain item multiplies quantity by price", func(t *testing.T) {
		it := Item{Price: 3.5}
		assert.InDelta(t, 70.0, Cost(it, 20), 1e-9)
	})

	t.Run("capacity item charges whole purchased units", func(t *testing.T) {
		// 35 m2 per bucket: 40 m2 needs 2 buckets
		it := Item{Price: 32.0, Capacity: fptr(35)}
		assert.InDelta(t, 64.0, Cost(it, 40), 1e-9)
	})

	t.Run("exact capacity multiple charges exactly", func(t *testing.T) {
		it := Item{Price: 10.0, Capacity: fptr(5)}
		assert.InDelta(t, 20.0, Cost(it, 10), 1e-9)
	})

	t.Run("zero capacity falls back to plain pricing", func(t *testing.T) {
		it := Item{Price: 10.0, Capacity: fptr(0)}
		assert.InDelta(t, 30.0, Cost(it, 3), 1e-9)
	})
}

func TestParseSnapshot(t *testing.T) {
	t.Run("valid blob parses", func(t *testing.T) {
		blob := []byte(`{"id":"pl-1","name":"Frozen","work":[{"id":"w-1","name":"Maľovanie","price":3.5}]}`)
		p := ParseSnapshot(blob)
		require.NotNil(t, p)
		assert.Equal(t, "pl-1", p.ID)
		require.Len(t, p.Work, 1)
		assert.Equal(t, 3.5, p.Work[0].Price)
	})

	t.Run("empty and null blobs yield nil", func(t *testing.T) {
		assert.Nil(t, ParseSnapshot(nil))
		assert.Nil(t, ParseSnapshot([]byte("null")))
	})

	t.Run("malformed blob yields nil", func(t *testing.T) {
		assert.Nil(t, ParseSnapshot([]byte("{broken")))
	})
}

func TestFromRecordDecodesCategories(t *testing.T) {
	rec := remote.Record{
		"id":            "pl-1",
		"contractor_id": "con-1",
		"name":          "Cenník",
		"general":       true,
		"work":          `[{"id":"w-1","name":"Maľovanie","unit":"m2","price":3.5}]`,
		"material":      []any{map[string]any{"id": "m-1", "name": "Farba", "price": 32.0, "capacity": 35.0}},
	}
	pl := FromRecord(rec)

	assert.True(t, pl.General)
	require.Len(t, pl.Work, 1)
	assert.Equal(t, "m2", pl.Work[0].Unit)
	require.Len(t, pl.Material, 1)
	require.NotNil(t, pl.Material[0].Capacity)
	assert.Equal(t, 35.0, *pl.Material[0].Capacity)

	t.Run("malformed category blob comes back empty", func(t *testing.T) {
		bad := remote.Record{"id": "pl-2", "work": "{oops"}
		assert.Empty(t, FromRecord(bad).Work)
	})
}

type stubWriter struct {
	lastInsert remote.Record
}

func (w *stubWriter) Insert(_ context.Context, _ string, rec remote.Record) (remote.Record, error) {
	out := remote.Record{"id": "frozen-1"}
	for k, v := range rec {
		out[k] = v
	}
	w.lastInsert = out
	return out, nil
}
func (w *stubWriter) Update(_ context.Context, _, id string, patch remote.Record) (remote.Record, error) {
	out := remote.Record{"id": id}
	for k, v := range patch {
		out[k] = v
	}
	return out, nil
}
func (w *stubWriter) Delete(context.Context, string, string) error { return nil }

type stubStore struct {
	lists   []PriceList
	batches [][]remote.ChangeEvent
}

func (s *stubStore) ApplyBatch(_ context.Context, batch []remote.ChangeEvent) {
	s.batches = append(s.batches, batch)
}
func (s *stubStore) PriceLists() []PriceList    { return s.lists }
func (s *stubStore) GeneralPriceList() PriceList { return Default() }
func (s *stubStore) ActiveContractorID() string  { return "con-1" }

func TestFreeze(t *testing.T) {
	writer := &stubWriter{}
	store := &stubStore{}
	repo := NewRepo(writer, store)

	src := Default()
	src.ContractorID = "con-1"

	frozen, err := repo.Freeze(context.Background(), src, "prj-1")
	require.NoError(t, err)

	assert.Equal(t, "frozen-1", frozen.ID, "frozen copy gets its own id")
	assert.Equal(t, "prj-1", frozen.ProjectID)
	assert.False(t, frozen.General, "a frozen snapshot is never the general list")
	assert.Len(t, frozen.Work, len(src.Work))
	require.Len(t, store.batches, 1, "creation applied to the snapshot optimistically")
}
