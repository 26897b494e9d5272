package snapshot

import (
	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

// Reduce applies a batch of change notifications to a snapshot and returns
// the next state. It is pure: no fetching, no locking, no mutation of the
// input. Per-id records pre-fetched for partial INSERT payloads are supplied
// in full, keyed by prefetchKey.
//
// Within a batch events apply in arrival order; later entries for the same id
// win. The uniform upsert rule: DELETE removes by id (missing id is a no-op),
// INSERT appends, UPDATE merges onto the entry with a matching id or appends
// when none exists, which self-heals after a missed insert.
func Reduce(s Snapshot, batch []remote.ChangeEvent, routes Routes, full map[string]remote.Record) Snapshot {
	next := s
	next.Contractors = append([]contractors.Contractor(nil), s.Contractors...)
	next.Clients = append([]clients.Client(nil), s.Clients...)
	next.Projects = append([]projects.Project(nil), s.Projects...)
	next.Invoices = append([]invoices.Invoice(nil), s.Invoices...)
	next.PriceLists = append([]pricelist.PriceList(nil), s.PriceLists...)

	regroup := map[string]bool{}  // contractor ids whose buckets must rebuild
	relinkClients := false

	for _, ev := range batch {
		for _, cat := range routes.CategoriesAffected(ev.Table) {
			switch cat {
			case CatContractors:
				next.applyContractor(ev)
			case CatSettings:
				next.applySettings(ev)
			case CatClients:
				next.applyClient(ev)
				relinkClients = true
			case CatProjects:
				next.applyProject(ev, full, regroup)
				relinkClients = true
			case CatRooms:
				next.applyRoom(ev, full)
			case CatInvoices:
				next.applyInvoice(ev)
			case CatPriceLists:
				next.applyPriceList(ev)
			case CatPrefs:
				next.applyPref(ev)
			}
		}
	}

	if len(regroup) > 0 {
		groups := make(map[string]projects.Group, len(next.Groups))
		for id, g := range next.Groups {
			groups[id] = g
		}
		for id := range regroup {
			groups[id] = projects.GroupByContractor(next.Projects, id)
		}
		next.Groups = groups
	}
	if relinkClients {
		next.Clients = rebuildClientProjects(next.Clients, next.Projects)
	}

	next.applyStaleness(batch, routes)

	return next
}

// record resolves the payload to apply for an event, preferring the
// pre-fetched full record for inserts whose push payload was partial.
func record(ev remote.ChangeEvent, full map[string]remote.Record) remote.Record {
	if ev.Type == remote.EventInsert {
		if rec, ok := full[prefetchKey(ev.Table, ev.ID())]; ok {
			return rec
		}
	}
	return ev.Record
}

func prefetchKey(table, id string) string {
	return table + "/" + id
}

// mergeOnto overlays the update payload's fields on the existing row's wire
// form, so fields absent from the push keep their current values.
func mergeOnto(existing, update remote.Record) remote.Record {
	merged := remote.Record{}
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

func (s *Snapshot) applyContractor(ev remote.ChangeEvent) {
	id := ev.ID()
	switch ev.Type {
	case remote.EventDelete:
		out := s.Contractors[:0:0]
		for _, c := range s.Contractors {
			if c.ID != id {
				out = append(out, c)
			}
		}
		s.Contractors = out
	case remote.EventInsert:
		s.Contractors = append(s.Contractors, contractors.FromRecord(ev.Record))
	case remote.EventUpdate:
		for i, c := range s.Contractors {
			if c.ID == id {
				merged := contractors.FromRecord(mergeOnto(c.ToRecord(), ev.Record))
				merged.Settings = c.Settings // settings live in their own table
				s.Contractors[i] = merged
				return
			}
		}
		s.Contractors = append(s.Contractors, contractors.FromRecord(ev.Record))
	}
}

// applySettings refreshes cached settings when the change targets the active
// contractor; settings rows for other contractors are loaded on switch.
func (s *Snapshot) applySettings(ev remote.ChangeEvent) {
	contractorID := ev.Record.String("contractor_id")
	if contractorID == "" || contractorID != s.ActiveContractorID {
		return
	}
	for i, c := range s.Contractors {
		if c.ID == contractorID {
			if ev.Type == remote.EventDelete {
				s.Contractors[i].Settings = contractors.DefaultSettings()
			} else {
				s.Contractors[i].Settings = contractors.SettingsFromRecord(ev.Record)
			}
			return
		}
	}
}

func (s *Snapshot) applyClient(ev remote.ChangeEvent) {
	id := ev.ID()
	switch ev.Type {
	case remote.EventDelete:
		out := s.Clients[:0:0]
		for _, c := range s.Clients {
			if c.ID != id {
				out = append(out, c)
			}
		}
		s.Clients = out
	case remote.EventInsert:
		s.Clients = append(s.Clients, clients.FromRecord(ev.Record))
	case remote.EventUpdate:
		for i, c := range s.Clients {
			if c.ID == id {
				s.Clients[i] = clients.FromRecord(mergeOnto(c.ToRecord(), ev.Record))
				return
			}
		}
		s.Clients = append(s.Clients, clients.FromRecord(ev.Record))
	}
}

func (s *Snapshot) applyProject(ev remote.ChangeEvent, full map[string]remote.Record, regroup map[string]bool) {
	id := ev.ID()

	// the contractor bucket must rebuild for the project's previous owner too
	if prev, ok := s.ProjectByID(id); ok {
		regroup[prev.ContractorID] = true
	}

	switch ev.Type {
	case remote.EventDelete:
		out := s.Projects[:0:0]
		for _, p := range s.Projects {
			if p.ID != id {
				out = append(out, p)
			}
		}
		s.Projects = out
	case remote.EventInsert:
		p := projects.FromRecord(record(ev, full))
		s.Projects = append(s.Projects, p)
		regroup[p.ContractorID] = true
	case remote.EventUpdate:
		for i, prev := range s.Projects {
			if prev.ID == id {
				merged := projects.FromRecord(mergeOnto(prev.ToRecord(), ev.Record))
				merged.Rooms = prev.Rooms // rooms never ride on project rows
				merged.RoomsLoaded = prev.RoomsLoaded
				s.Projects[i] = merged
				regroup[merged.ContractorID] = true
				return
			}
		}
		p := projects.FromRecord(ev.Record)
		s.Projects = append(s.Projects, p)
		regroup[p.ContractorID] = true
	}
}

func (s *Snapshot) applyRoom(ev remote.ChangeEvent, full map[string]remote.Record) {
	rec := record(ev, full)
	id := ev.ID()
	projectID := rec.String("project_id")

	for i, p := range s.Projects {
		owns := p.ID == projectID
		if !owns && ev.Type == remote.EventDelete && projectID == "" {
			// delete payloads may omit project_id; locate the room by id
			for _, r := range p.Rooms {
				if r.ID == id {
					owns = true
					break
				}
			}
		}
		if !owns {
			continue
		}

		p.Rooms = append([]rooms.Room(nil), p.Rooms...)
		switch ev.Type {
		case remote.EventDelete:
			out := p.Rooms[:0:0]
			for _, r := range p.Rooms {
				if r.ID != id {
					out = append(out, r)
				}
			}
			p.Rooms = out
		case remote.EventInsert:
			p.Rooms = append(p.Rooms, rooms.FromRecord(rec))
		case remote.EventUpdate:
			replaced := false
			for j, prev := range p.Rooms {
				if prev.ID == id {
					merged := rooms.FromRecord(mergeOnto(prev.ToRecord(), rec))
					merged.WorkItems = prev.WorkItems
					merged.Loaded = prev.Loaded
					merged.Stale = prev.Stale
					p.Rooms[j] = merged
					replaced = true
					break
				}
			}
			if !replaced {
				p.Rooms = append(p.Rooms, rooms.FromRecord(rec))
			}
		}
		s.Projects[i] = p
		return
	}
}

func (s *Snapshot) applyInvoice(ev remote.ChangeEvent) {
	id := ev.ID()
	switch ev.Type {
	case remote.EventDelete:
		out := s.Invoices[:0:0]
		for _, inv := range s.Invoices {
			if inv.ID != id {
				out = append(out, inv)
			}
		}
		s.Invoices = out
	case remote.EventInsert:
		s.Invoices = append(s.Invoices, invoices.FromRecord(ev.Record))
	case remote.EventUpdate:
		for i, inv := range s.Invoices {
			if inv.ID == id {
				s.Invoices[i] = invoices.FromRecord(mergeOnto(inv.ToRecord(), ev.Record))
				return
			}
		}
		s.Invoices = append(s.Invoices, invoices.FromRecord(ev.Record))
	}
}

func (s *Snapshot) applyPriceList(ev remote.ChangeEvent) {
	id := ev.ID()
	switch ev.Type {
	case remote.EventDelete:
		out := s.PriceLists[:0:0]
		for _, l := range s.PriceLists {
			if l.ID != id {
				out = append(out, l)
			}
		}
		s.PriceLists = out
		if s.General.ID == id {
			s.General = resolveGeneral(s.PriceLists, s.ActiveContractorID)
		}
	case remote.EventInsert:
		l := pricelist.FromRecord(ev.Record)
		s.PriceLists = append(s.PriceLists, l)
		if l.General && l.ContractorID == s.ActiveContractorID {
			s.General = l
		}
	case remote.EventUpdate:
		var l pricelist.PriceList
		replaced := false
		for i, prev := range s.PriceLists {
			if prev.ID == id {
				l = pricelist.FromRecord(mergeOnto(prev.ToRecord(), ev.Record))
				s.PriceLists[i] = l
				replaced = true
				break
			}
		}
		if !replaced {
			l = pricelist.FromRecord(ev.Record)
			s.PriceLists = append(s.PriceLists, l)
		}
		if l.General && l.ContractorID == s.ActiveContractorID {
			s.General = l
		}
	}
}

func (s *Snapshot) applyPref(ev remote.ChangeEvent) {
	if ev.Type == remote.EventDelete {
		return
	}
	if ev.Record.Has("filter_year") {
		s.FilterYear = ev.Record.Int("filter_year")
	}
}

// applyStaleness runs after the whole batch: any work-item change marks its
// owning room stale. A payload without a room reference marks every room in
// every project, trading over-invalidation for never serving silently stale
// work items.
func (s *Snapshot) applyStaleness(batch []remote.ChangeEvent, routes Routes) {
	var roomIDs []string
	markAll := false

	for _, ev := range batch {
		affects := false
		for _, cat := range routes.CategoriesAffected(ev.Table) {
			if cat == CatWorkItems {
				affects = true
				break
			}
		}
		if !affects {
			continue
		}
		if roomID := ev.Record.String("room_id"); roomID != "" {
			roomIDs = append(roomIDs, roomID)
		} else {
			markAll = true
		}
	}
	if !markAll && len(roomIDs) == 0 {
		return
	}

	for i, p := range s.Projects {
		touched := false
		rs := append([]rooms.Room(nil), p.Rooms...)
		for j := range rs {
			if markAll || containsString(roomIDs, rs[j].ID) {
				rs[j].Stale = true
				touched = true
			}
		}
		if touched {
			p.Rooms = rs
			s.Projects[i] = p
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// resolveGeneral locates the contractor's general price list: the row flagged
// general first, then a legacy row keyed by the contractor's own id, else the
// built-in default.
func resolveGeneral(lists []pricelist.PriceList, contractorID string) pricelist.PriceList {
	for _, l := range lists {
		if l.General && l.ContractorID == contractorID {
			return l
		}
	}
	for _, l := range lists {
		if l.ID == contractorID {
			return l
		}
	}
	return pricelist.Default()
}
