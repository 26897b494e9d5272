package snapshot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

const prefsTable = "user_prefs"

// Load assembles the full initial snapshot for a user session. On any fetch
// failure the store falls back to the empty default state rather than staying
// stuck; the error is returned for logging but the store remains usable.
// A second Load while one is running is suppressed with ErrLoadInProgress.
func (st *Store) Load(ctx context.Context, userID string) error {
	if !st.loading.CompareAndSwap(false, true) {
		return ErrLoadInProgress
	}
	defer st.loading.Store(false)

	snap, err := st.buildSnapshot(ctx, userID)
	if err != nil {
		log.Printf("snapshot load failed, falling back to defaults: %v", err)
		snap = Default()
		snap.UserID = userID
	}

	st.mu.Lock()
	st.snap = snap
	st.mu.Unlock()

	if err != nil {
		return fmt.Errorf("snapshot load: %w", err)
	}
	return nil
}

func (st *Store) buildSnapshot(ctx context.Context, userID string) (Snapshot, error) {
	snap := Default()
	snap.UserID = userID

	// step 1: contractors and the saved filter-year preference, in parallel
	var (
		contractorRecs []remote.Record
		prefRecs       []remote.Record
		wg             sync.WaitGroup
		errOnce        sync.Once
		firstErr       error
	)
	fail := func(err error) { errOnce.Do(func() { firstErr = err }) }

	wg.Add(2)
	go func() {
		defer wg.Done()
		recs, err := st.source.Select(ctx, contractors.Table,
			remote.NewQuery().Eq("user_id", userID).Order("created_at", false))
		if err != nil {
			fail(fmt.Errorf("fetch contractors: %w", err))
			return
		}
		contractorRecs = recs
	}()
	go func() {
		defer wg.Done()
		recs, err := st.source.Select(ctx, prefsTable,
			remote.NewQuery().Eq("user_id", userID).WithLimit(1))
		if err != nil {
			fail(fmt.Errorf("fetch user prefs: %w", err))
			return
		}
		prefRecs = recs
	}()
	wg.Wait()
	if firstErr != nil {
		return Snapshot{}, firstErr
	}

	for _, rec := range contractorRecs {
		snap.Contractors = append(snap.Contractors, contractors.FromRecord(rec))
	}
	if len(prefRecs) > 0 && prefRecs[0].Has("filter_year") {
		snap.FilterYear = prefRecs[0].Int("filter_year")
	}

	if len(snap.Contractors) == 0 {
		snap.LoadedAt = time.Now()
		return snap, nil
	}

	// step 2: active contractor, preferring the saved preference when it
	// still exists
	snap.ActiveContractorID = snap.Contractors[0].ID
	if st.prefs != nil {
		if saved, err := st.prefs.LastContractor(ctx, userID); err == nil && saved != "" {
			for _, c := range snap.Contractors {
				if c.ID == saved {
					snap.ActiveContractorID = saved
					break
				}
			}
		}
	}
	active := snap.ActiveContractorID

	// step 3: scoped entity fetches plus the full price-list set. Price lists
	// are unscoped because historical projects may reference any list by id.
	var (
		clientRecs, projectRecs, invoiceRecs, listRecs, settingsRecs []remote.Record
	)
	fetch := func(dst *[]remote.Record, table string, q remote.Query, what string) {
		defer wg.Done()
		recs, err := st.source.Select(ctx, table, q)
		if err != nil {
			fail(fmt.Errorf("fetch %s: %w", what, err))
			return
		}
		*dst = recs
	}
	wg.Add(5)
	go fetch(&clientRecs, clients.Table, remote.NewQuery().Eq("contractor_id", active), "clients")
	go fetch(&projectRecs, projects.Table, remote.NewQuery().Eq("contractor_id", active).Order("created_at", true), "projects")
	go fetch(&invoiceRecs, invoices.Table, remote.NewQuery().Eq("contractor_id", active).Order("created_at", true), "invoices")
	go fetch(&listRecs, pricelist.Table, remote.NewQuery(), "price lists")
	go fetch(&settingsRecs, contractors.SettingsTable, remote.NewQuery().Eq("contractor_id", active).WithLimit(1), "contractor settings")
	wg.Wait()
	if firstErr != nil {
		return Snapshot{}, firstErr
	}

	// step 4: transform; FromRecord parses embedded snapshot/photo/history
	// blobs (a malformed blob logs and comes back empty)
	for _, rec := range clientRecs {
		snap.Clients = append(snap.Clients, clients.FromRecord(rec))
	}
	for _, rec := range projectRecs {
		snap.Projects = append(snap.Projects, projects.FromRecord(rec))
	}
	for _, rec := range invoiceRecs {
		snap.Invoices = append(snap.Invoices, invoices.FromRecord(rec))
	}
	for _, rec := range listRecs {
		snap.PriceLists = append(snap.PriceLists, pricelist.FromRecord(rec))
	}
	if len(settingsRecs) > 0 {
		for i, c := range snap.Contractors {
			if c.ID == active {
				snap.Contractors[i].Settings = contractors.SettingsFromRecord(settingsRecs[0])
				break
			}
		}
	}

	// step 5: re-derive each client's project list from the loaded projects,
	// discarding the stale embedded list
	snap.Clients = rebuildClientProjects(snap.Clients, snap.Projects)

	// step 6: per-contractor category buckets with counts + archived
	snap.Groups = make(map[string]projects.Group, len(snap.Contractors))
	for _, c := range snap.Contractors {
		snap.Groups[c.ID] = projects.GroupByContractor(snap.Projects, c.ID)
	}

	// step 7: general price list, with legacy identity fallback and the
	// hardcoded default as the last resort
	snap.General = resolveGeneral(snap.PriceLists, active)

	snap.LoadedAt = time.Now()
	return snap, nil
}
