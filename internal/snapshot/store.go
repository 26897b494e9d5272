package snapshot

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

var ErrLoadInProgress = errors.New("snapshot: load already in progress")

// Store owns the session snapshot and serializes every state transition.
// Reads return the current immutable value; writes replace the whole value,
// so no consumer ever observes a partially-applied batch.
type Store struct {
	source  RemoteSource
	prefs   Preferences
	routes  Routes
	limiter *rate.Limiter

	mu      sync.RWMutex
	snap    Snapshot
	loading atomic.Bool
}

type StoreOptions struct {
	// PrefetchRate/Burst bound the per-id re-fetch fan-out during
	// reconciliation. Zero values fall back to 20/40.
	PrefetchRate  int
	PrefetchBurst int
}

func NewStore(source RemoteSource, prefs Preferences, routes Routes, opts StoreOptions) *Store {
	if routes == nil {
		routes = DefaultRoutes()
	}
	r := opts.PrefetchRate
	if r <= 0 {
		r = 20
	}
	b := opts.PrefetchBurst
	if b <= 0 {
		b = 2 * r
	}
	return &Store{
		source:  source,
		prefs:   prefs,
		routes:  routes,
		limiter: rate.NewLimiter(rate.Limit(r), b),
		snap:    Default(),
	}
}

// View returns the current snapshot value.
func (st *Store) View() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}

// Reset tears the snapshot down to defaults, e.g. on logout.
func (st *Store) Reset() {
	st.mu.Lock()
	st.snap = Default()
	st.mu.Unlock()
}

// ApplyBatch reconciles a batch of change notifications into the snapshot as
// one atomic state transition. The pre-fetch phase fully resolves before any
// event is applied.
func (st *Store) ApplyBatch(ctx context.Context, batch []remote.ChangeEvent) {
	if len(batch) == 0 {
		return
	}
	full := st.prefetch(ctx, batch)

	st.mu.Lock()
	st.snap = Reduce(st.snap, batch, st.routes, full)
	st.mu.Unlock()
}

// prefetchTables lists the tables whose push payloads may be partial on
// insert and therefore need a per-id fetch for the full row.
var prefetchTables = map[string]bool{
	projects.Table: true,
	rooms.Table:    true,
}

// prefetch issues concurrent, rate-limited per-id fetches for INSERT events
// on tables that need a full record. A failed fetch is logged and omitted;
// that single insert is skipped, the rest of the batch still applies.
func (st *Store) prefetch(ctx context.Context, batch []remote.ChangeEvent) map[string]remote.Record {
	type target struct{ table, id string }
	var targets []target
	seen := map[string]bool{}
	for _, ev := range batch {
		if ev.Type != remote.EventInsert || !prefetchTables[ev.Table] {
			continue
		}
		id := ev.ID()
		if id == "" {
			continue
		}
		key := prefetchKey(ev.Table, id)
		if !seen[key] {
			seen[key] = true
			targets = append(targets, target{ev.Table, id})
		}
	}
	if len(targets) == 0 {
		return nil
	}

	full := make(map[string]remote.Record, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, tg := range targets {
		wg.Add(1)
		go func(tg target) {
			defer wg.Done()
			if err := st.limiter.Wait(ctx); err != nil {
				return
			}
			rec, err := st.source.GetByID(ctx, tg.table, tg.id)
			if err != nil {
				log.Printf("prefetch %s/%s failed, skipping insert: %v", tg.table, tg.id, err)
				return
			}
			mu.Lock()
			full[prefetchKey(tg.table, tg.id)] = rec
			mu.Unlock()
		}(tg)
	}
	wg.Wait()

	return full
}

// LoadRooms fetches the rooms and work items of one project on demand and
// patches the snapshot, clearing any staleness flags. Consumers call this
// when they hit an unloaded or stale room.
func (st *Store) LoadRooms(ctx context.Context, projectID string) ([]rooms.Room, error) {
	roomRecs, err := st.source.Select(ctx, rooms.Table,
		remote.NewQuery().Eq("project_id", projectID).Order("created_at", false))
	if err != nil {
		return nil, err
	}

	loaded := make([]rooms.Room, len(roomRecs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, rec := range roomRecs {
		loaded[i] = rooms.FromRecord(rec)
		wg.Add(1)
		go func(i int, roomID string) {
			defer wg.Done()
			itemRecs, err := st.source.Select(ctx, rooms.WorkItemsTable,
				remote.NewQuery().Eq("room_id", roomID))
			if err != nil {
				log.Printf("work items for room %s failed, leaving room unloaded: %v", roomID, err)
				return
			}
			items := make([]rooms.WorkItem, len(itemRecs))
			for j, ir := range itemRecs {
				items[j] = rooms.WorkItemFromRecord(ir)
			}
			mu.Lock()
			loaded[i].WorkItems = items
			loaded[i].Loaded = true
			mu.Unlock()
		}(i, loaded[i].ID)
	}
	wg.Wait()

	st.mu.Lock()
	next := st.snap
	next.Projects = append([]projects.Project(nil), st.snap.Projects...)
	for i, p := range next.Projects {
		if p.ID == projectID {
			p.Rooms = loaded
			p.RoomsLoaded = true
			next.Projects[i] = p
			break
		}
	}
	st.snap = next
	st.mu.Unlock()

	return loaded, nil
}

// SwitchContractor persists the new active contractor preference and reloads
// the scoped snapshot.
func (st *Store) SwitchContractor(ctx context.Context, userID, contractorID string) error {
	if st.prefs != nil {
		if err := st.prefs.SetLastContractor(ctx, userID, contractorID); err != nil {
			return err
		}
	}
	return st.Load(ctx, userID)
}

// StaleRooms lists project/room pairs currently flagged stale, for the
// periodic refresh sweep.
func (st *Store) StaleRooms() map[string][]string {
	snap := st.View()
	out := map[string][]string{}
	for _, p := range snap.Projects {
		for _, r := range p.Rooms {
			if r.Stale {
				out[p.ID] = append(out[p.ID], r.ID)
			}
		}
	}
	return out
}

// LoadedAt reports when the snapshot was last fully loaded.
func (st *Store) LoadedAt() time.Time {
	return st.View().LoadedAt
}
