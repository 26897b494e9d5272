package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

func baseSnapshot() Snapshot {
	s := Default()
	s.UserID = "user-1"
	s.ActiveContractorID = "con-1"
	s.Contractors = []contractors.Contractor{
		{ID: "con-1", UserID: "user-1", Name: "Stav s.r.o.", Settings: contractors.DefaultSettings()},
	}
	s.Clients = []clients.Client{
		{ID: "cli-1", ContractorID: "con-1", Name: "Novák"},
	}
	s.Projects = []projects.Project{
		{ID: "prj-1", ContractorID: "con-1", ClientID: "cli-1", Name: "Byt Ružinov", Category: projects.CategoryFlats,
			Rooms: []rooms.Room{
				{ID: "room-1", ProjectID: "prj-1", Name: "Kuchyňa", Loaded: true},
				{ID: "room-2", ProjectID: "prj-1", Name: "Spálňa", Loaded: true},
			},
			RoomsLoaded: true,
		},
		{ID: "prj-2", ContractorID: "con-1", Name: "Dom Senec", Category: projects.CategoryHouses,
			Rooms:       []rooms.Room{{ID: "room-3", ProjectID: "prj-2", Name: "Obývačka", Loaded: true}},
			RoomsLoaded: true,
		},
	}
	s.Groups = map[string]projects.Group{
		"con-1": projects.GroupByContractor(s.Projects, "con-1"),
	}
	return s
}

func TestReduceClientUpsert(t *testing.T) {
	routes := DefaultRoutes()

	t.Run("update merges onto existing fields", func(t *testing.T) {
		s := baseSnapshot()
		s.Clients[0].Email = "novak@example.sk"

		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: clients.Table,
				Record: remote.Record{"id": "cli-1", "phone": "+421900111222"}},
		}, routes, nil)

		require.Len(t, next.Clients, 1)
		assert.Equal(t, "+421900111222", next.Clients[0].Phone)
		assert.Equal(t, "novak@example.sk", next.Clients[0].Email, "fields missing from the push keep their values")
		assert.Equal(t, "Novák", next.Clients[0].Name)
	})

	t.Run("same update twice is idempotent", func(t *testing.T) {
		s := baseSnapshot()
		ev := remote.ChangeEvent{Type: remote.EventUpdate, Table: clients.Table,
			Record: remote.Record{"id": "cli-1", "name": "Novák a syn"}}

		once := Reduce(s, []remote.ChangeEvent{ev}, routes, nil)
		twice := Reduce(once, []remote.ChangeEvent{ev}, routes, nil)

		assert.Equal(t, once.Clients, twice.Clients)
	})

	t.Run("update for unknown id appends", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: clients.Table,
				Record: remote.Record{"id": "cli-9", "contractor_id": "con-1", "name": "Kováč"}},
		}, routes, nil)

		require.Len(t, next.Clients, 2)
		assert.Equal(t, "Kováč", next.Clients[1].Name)
	})

	t.Run("delete of missing id is a no-op", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventDelete, Table: clients.Table, Record: remote.Record{"id": "cli-404"}},
		}, routes, nil)

		assert.Equal(t, s.Clients, next.Clients)
	})

	t.Run("later entry for the same id wins", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: clients.Table,
				Record: remote.Record{"id": "cli-1", "name": "First"}},
			{Type: remote.EventUpdate, Table: clients.Table,
				Record: remote.Record{"id": "cli-1", "name": "Second"}},
		}, routes, nil)

		require.Len(t, next.Clients, 1)
		assert.Equal(t, "Second", next.Clients[0].Name)
	})
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := baseSnapshot()
	before := s.Clients[0].Name

	_ = Reduce(s, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: clients.Table,
			Record: remote.Record{"id": "cli-1", "name": "Changed"}},
	}, DefaultRoutes(), nil)

	assert.Equal(t, before, s.Clients[0].Name)
}

func TestReduceProjectRegroup(t *testing.T) {
	routes := DefaultRoutes()

	t.Run("category change moves the project between buckets", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: projects.Table,
				Record: remote.Record{"id": "prj-1", "category": "commercial"}},
		}, routes, nil)

		g := next.Groups["con-1"]
		assert.Empty(t, g.ByCategory[projects.CategoryFlats])
		require.Len(t, g.ByCategory[projects.CategoryCommercial], 1)
		assert.Equal(t, "prj-1", g.ByCategory[projects.CategoryCommercial][0].ID)
		assert.Equal(t, 0, g.Counts[projects.CategoryFlats])
		assert.Equal(t, 1, g.Counts[projects.CategoryCommercial])
	})

	t.Run("archive removes from buckets and counts", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: projects.Table,
				Record: remote.Record{"id": "prj-2", "archived": true}},
		}, routes, nil)

		g := next.Groups["con-1"]
		assert.Equal(t, 0, g.Counts[projects.CategoryHouses])
		require.Len(t, g.Archived, 1)
		assert.Equal(t, "prj-2", g.Archived[0].ID)
	})

	t.Run("project update keeps loaded rooms", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: projects.Table,
				Record: remote.Record{"id": "prj-1", "name": "Byt Ružinov II"}},
		}, routes, nil)

		p, ok := next.ProjectByID("prj-1")
		require.True(t, ok)
		assert.Equal(t, "Byt Ružinov II", p.Name)
		assert.True(t, p.RoomsLoaded)
		assert.Len(t, p.Rooms, 2)
	})

	t.Run("insert prefers the prefetched full record", func(t *testing.T) {
		s := baseSnapshot()
		full := map[string]remote.Record{
			"projects/prj-3": {"id": "prj-3", "contractor_id": "con-1", "name": "Full payload", "category": "flats"},
		}
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventInsert, Table: projects.Table,
				Record: remote.Record{"id": "prj-3"}},
		}, routes, full)

		p, ok := next.ProjectByID("prj-3")
		require.True(t, ok)
		assert.Equal(t, "Full payload", p.Name)
		assert.Equal(t, 2, next.Groups["con-1"].Counts[projects.CategoryFlats])
	})

	t.Run("new project relinks the client summary", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventInsert, Table: projects.Table,
				Record: remote.Record{"id": "prj-4", "contractor_id": "con-1", "client_id": "cli-1",
					"name": "Prístavba", "category": "houses"}},
		}, routes, nil)

		require.Len(t, next.Clients, 1)
		var ids []string
		for _, ps := range next.Clients[0].Projects {
			ids = append(ids, ps.ID)
		}
		assert.Contains(t, ids, "prj-4")
		assert.Contains(t, ids, "prj-1")
	})
}

func TestReduceStaleness(t *testing.T) {
	routes := DefaultRoutes()

	t.Run("work item with room_id marks only the owning room", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: rooms.WorkItemsTable,
				Record: remote.Record{"id": "wi-1", "room_id": "room-2"}},
		}, routes, nil)

		p, _ := next.ProjectByID("prj-1")
		assert.False(t, p.Rooms[0].Stale)
		assert.True(t, p.Rooms[1].Stale)
		other, _ := next.ProjectByID("prj-2")
		assert.False(t, other.Rooms[0].Stale)
	})

	t.Run("work item without room reference marks every room", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventDelete, Table: rooms.WorkItemsTable,
				Record: remote.Record{"id": "wi-1"}},
		}, routes, nil)

		for _, p := range next.Projects {
			for _, r := range p.Rooms {
				assert.True(t, r.Stale, "room %s should be stale", r.ID)
			}
		}
	})

	t.Run("staleness is advisory, work items stay", func(t *testing.T) {
		s := baseSnapshot()
		s.Projects[0].Rooms[0].WorkItems = []rooms.WorkItem{{ID: "wi-1", Name: "Maľovanie"}}

		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: rooms.WorkItemsTable,
				Record: remote.Record{"id": "wi-1", "room_id": "room-1"}},
		}, routes, nil)

		p, _ := next.ProjectByID("prj-1")
		assert.True(t, p.Rooms[0].Stale)
		assert.Len(t, p.Rooms[0].WorkItems, 1)
	})
}

func TestReduceRooms(t *testing.T) {
	routes := DefaultRoutes()

	t.Run("delete without project_id locates the room by id", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventDelete, Table: rooms.Table, Record: remote.Record{"id": "room-2"}},
		}, routes, nil)

		p, _ := next.ProjectByID("prj-1")
		require.Len(t, p.Rooms, 1)
		assert.Equal(t, "room-1", p.Rooms[0].ID)
	})

	t.Run("room update keeps loaded work items and flags", func(t *testing.T) {
		s := baseSnapshot()
		s.Projects[0].Rooms[0].WorkItems = []rooms.WorkItem{{ID: "wi-1"}}
		s.Projects[0].Rooms[0].Stale = true

		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: rooms.Table,
				Record: remote.Record{"id": "room-1", "project_id": "prj-1", "name": "Kuchyňa s jedálňou"}},
		}, routes, nil)

		p, _ := next.ProjectByID("prj-1")
		assert.Equal(t, "Kuchyňa s jedálňou", p.Rooms[0].Name)
		assert.Len(t, p.Rooms[0].WorkItems, 1)
		assert.True(t, p.Rooms[0].Stale)
	})
}

func TestReduceGeneralPriceList(t *testing.T) {
	routes := DefaultRoutes()

	t.Run("general insert for the active contractor becomes the general list", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventInsert, Table: pricelist.Table,
				Record: remote.Record{"id": "pl-1", "contractor_id": "con-1", "name": "Cenník 2026", "general": true}},
		}, routes, nil)

		assert.Equal(t, "pl-1", next.General.ID)
	})

	t.Run("general insert for another contractor is stored but not promoted", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventInsert, Table: pricelist.Table,
				Record: remote.Record{"id": "pl-2", "contractor_id": "con-9", "general": true}},
		}, routes, nil)

		assert.Len(t, next.PriceLists, 1)
		assert.NotEqual(t, "pl-2", next.General.ID)
	})

	t.Run("deleting the general list falls back to the built-in default", func(t *testing.T) {
		s := baseSnapshot()
		s.PriceLists = []pricelist.PriceList{{ID: "pl-1", ContractorID: "con-1", General: true}}
		s.General = s.PriceLists[0]

		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventDelete, Table: pricelist.Table, Record: remote.Record{"id": "pl-1"}},
		}, routes, nil)

		assert.Equal(t, pricelist.Default().ID, next.General.ID)
	})
}

func TestReduceSettingsAndPrefs(t *testing.T) {
	routes := DefaultRoutes()

	t.Run("settings change refreshes the active contractor", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: contractors.SettingsTable,
				Record: remote.Record{"contractor_id": "con-1", "vat_rate": 0.2, "invoice_prefix": "SK"}},
		}, routes, nil)

		active, ok := next.ActiveContractor()
		require.True(t, ok)
		assert.Equal(t, 0.2, active.Settings.VATRate)
		assert.Equal(t, "SK", active.Settings.InvoicePrefix)
	})

	t.Run("settings change for another contractor is ignored", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: contractors.SettingsTable,
				Record: remote.Record{"contractor_id": "con-9", "vat_rate": 0.1}},
		}, routes, nil)

		active, _ := next.ActiveContractor()
		assert.Equal(t, contractors.DefaultSettings().VATRate, active.Settings.VATRate)
	})

	t.Run("pref row update changes the filter year", func(t *testing.T) {
		s := baseSnapshot()
		next := Reduce(s, []remote.ChangeEvent{
			{Type: remote.EventUpdate, Table: "user_prefs",
				Record: remote.Record{"user_id": "user-1", "filter_year": 2025}},
		}, routes, nil)

		assert.Equal(t, 2025, next.FilterYear)
	})
}

func TestRoutesUnknownTable(t *testing.T) {
	routes := DefaultRoutes()
	s := baseSnapshot()

	next := Reduce(s, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: "audit_log", Record: remote.Record{"id": "x"}},
	}, routes, nil)

	assert.Equal(t, s.Clients, next.Clients)
	assert.Equal(t, s.Projects, next.Projects)
}
