package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

// fakeSource serves canned rows per table, applying eq filters so scoped
// queries behave like the real backend.
type fakeSource struct {
	rows    map[string][]remote.Record
	failOn  map[string]error
	selects []string
}

func (f *fakeSource) Select(_ context.Context, table string, q remote.Query) ([]remote.Record, error) {
	f.selects = append(f.selects, table)
	if err := f.failOn[table]; err != nil {
		return nil, err
	}
	var out []remote.Record
	for _, rec := range f.rows[table] {
		match := true
		for _, flt := range q.Filters {
			want := remote.Record{"v": flt.Value}
			if flt.Op == "eq" && rec.String(flt.Column) != want.String("v") {
				match = false
				break
			}
		}
		if match {
			out = append(out, rec)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeSource) GetByID(_ context.Context, table, id string) (remote.Record, error) {
	for _, rec := range f.rows[table] {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, remote.ErrNotFound
}

type fakePrefs struct {
	last map[string]string
	err  error
}

func (f *fakePrefs) LastContractor(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.last[userID], nil
}

func (f *fakePrefs) SetLastContractor(_ context.Context, userID, contractorID string) error {
	if f.err != nil {
		return f.err
	}
	if f.last == nil {
		f.last = map[string]string{}
	}
	f.last[userID] = contractorID
	return nil
}

func twoContractorSource() *fakeSource {
	return &fakeSource{
		rows: map[string][]remote.Record{
			contractors.Table: {
				{"id": "con-a", "user_id": "user-1", "name": "Firma A"},
				{"id": "con-b", "user_id": "user-1", "name": "Firma B"},
			},
			contractors.SettingsTable: {
				{"contractor_id": "con-b", "vat_rate": 0.2, "invoice_prefix": "FB", "next_invoice_seq": 6},
			},
			clients.Table: {
				{"id": "cli-a", "contractor_id": "con-a", "name": "Klient A"},
				{"id": "cli-b", "contractor_id": "con-b", "name": "Klient B"},
			},
			projects.Table: {
				{"id": "prj-a", "contractor_id": "con-a", "name": "Projekt A", "category": "flats"},
				{"id": "prj-b", "contractor_id": "con-b", "client_id": "cli-b", "name": "Projekt B", "category": "houses"},
			},
			"user_prefs": {
				{"user_id": "user-1", "filter_year": 2026, "last_contractor_id": "con-b"},
			},
		},
		failOn: map[string]error{},
	}
}

func TestLoadScopesToSavedContractor(t *testing.T) {
	src := twoContractorSource()
	prefs := &fakePrefs{last: map[string]string{"user-1": "con-b"}}
	st := NewStore(src, prefs, DefaultRoutes(), StoreOptions{})

	require.NoError(t, st.Load(context.Background(), "user-1"))
	snap := st.View()

	assert.Equal(t, "con-b", snap.ActiveContractorID, "saved preference wins over first contractor")
	assert.Len(t, snap.Contractors, 2, "all contractors load, lists scope to the active one")

	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "cli-b", snap.Clients[0].ID)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "prj-b", snap.Projects[0].ID)

	active, ok := snap.ActiveContractor()
	require.True(t, ok)
	assert.Equal(t, 0.2, active.Settings.VATRate)
	assert.Equal(t, 6, active.Settings.NextInvoiceSeq)

	assert.Equal(t, 2026, snap.FilterYear)
	assert.Equal(t, 1, snap.Groups["con-b"].Counts[projects.CategoryHouses])
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestLoadIgnoresVanishedPreference(t *testing.T) {
	src := twoContractorSource()
	prefs := &fakePrefs{last: map[string]string{"user-1": "con-gone"}}
	st := NewStore(src, prefs, DefaultRoutes(), StoreOptions{})

	require.NoError(t, st.Load(context.Background(), "user-1"))
	assert.Equal(t, "con-a", st.View().ActiveContractorID)
}

func TestLoadFailureFallsBackToDefault(t *testing.T) {
	src := twoContractorSource()
	src.failOn[projects.Table] = errors.New("boom")
	st := NewStore(src, &fakePrefs{}, DefaultRoutes(), StoreOptions{})

	err := st.Load(context.Background(), "user-1")
	require.Error(t, err)

	snap := st.View()
	assert.Empty(t, snap.Contractors, "failed load leaves the default state, not a partial one")
	assert.Equal(t, "user-1", snap.UserID)
	assert.NotZero(t, snap.FilterYear)
	assert.NotEmpty(t, snap.General.Work, "built-in general list available even without data")
}

func TestLoadSuppressedWhileRunning(t *testing.T) {
	st := NewStore(twoContractorSource(), nil, DefaultRoutes(), StoreOptions{})
	st.loading.Store(true)

	err := st.Load(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrLoadInProgress)

	st.loading.Store(false)
	assert.NoError(t, st.Load(context.Background(), "user-1"))
}

func TestLoadNoContractors(t *testing.T) {
	src := &fakeSource{rows: map[string][]remote.Record{}, failOn: map[string]error{}}
	st := NewStore(src, nil, DefaultRoutes(), StoreOptions{})

	require.NoError(t, st.Load(context.Background(), "user-1"))
	snap := st.View()
	assert.Empty(t, snap.Contractors)
	assert.Empty(t, snap.ActiveContractorID)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestSwitchContractorReloadsScope(t *testing.T) {
	src := twoContractorSource()
	prefs := &fakePrefs{last: map[string]string{}}
	st := NewStore(src, prefs, DefaultRoutes(), StoreOptions{})
	require.NoError(t, st.Load(context.Background(), "user-1"))
	require.Equal(t, "con-a", st.View().ActiveContractorID)

	require.NoError(t, st.SwitchContractor(context.Background(), "user-1", "con-b"))

	snap := st.View()
	assert.Equal(t, "con-b", snap.ActiveContractorID)
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "cli-b", snap.Clients[0].ID)
	assert.Equal(t, "con-b", prefs.last["user-1"], "preference persisted before reload")
}

func TestLoadRoomsPatchesProject(t *testing.T) {
	src := twoContractorSource()
	src.rows[rooms.Table] = []remote.Record{
		{"id": "room-1", "project_id": "prj-a", "name": "Kuchyňa"},
	}
	src.rows[rooms.WorkItemsTable] = []remote.Record{
		{"id": "wi-1", "room_id": "room-1", "name": "Maľovanie", "quantity": 20.0, "price": 3.5},
	}
	st := NewStore(src, &fakePrefs{}, DefaultRoutes(), StoreOptions{})
	require.NoError(t, st.Load(context.Background(), "user-1"))

	loaded, err := st.LoadRooms(context.Background(), "prj-a")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].Loaded)
	require.Len(t, loaded[0].WorkItems, 1)
	assert.Equal(t, 70.0, loaded[0].Total())

	p, ok := st.View().ProjectByID("prj-a")
	require.True(t, ok)
	assert.True(t, p.RoomsLoaded)
	require.Len(t, p.Rooms, 1)
	assert.Equal(t, "wi-1", p.Rooms[0].WorkItems[0].ID)
}

func TestApplyBatchPrefetchesPartialInserts(t *testing.T) {
	src := twoContractorSource()
	src.rows[projects.Table] = append(src.rows[projects.Table],
		remote.Record{"id": "prj-new", "contractor_id": "con-a", "name": "Novostavba", "category": "houses"})
	st := NewStore(src, &fakePrefs{}, DefaultRoutes(), StoreOptions{})
	require.NoError(t, st.Load(context.Background(), "user-1"))

	st.ApplyBatch(context.Background(), []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: projects.Table, Record: remote.Record{"id": "prj-new"}},
	})

	p, ok := st.View().ProjectByID("prj-new")
	require.True(t, ok)
	assert.Equal(t, "Novostavba", p.Name, "partial insert payload resolved via per-id fetch")
}
