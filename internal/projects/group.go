package projects

// Group is the per-contractor project view: fixed category buckets with
// counts, archived projects bucketed separately.
type Group struct {
	ByCategory map[Category][]Project `json:"by_category"`
	Counts     map[Category]int       `json:"counts"`
	Archived   []Project              `json:"archived"`
}

// GroupByContractor rebuilds the category buckets for one contractor from a
// flat project list. Every fixed category is present even when empty, so
// consumers render a stable set of buckets.
func GroupByContractor(all []Project, contractorID string) Group {
	g := Group{
		ByCategory: make(map[Category][]Project, len(Categories())),
		Counts:     make(map[Category]int, len(Categories())),
	}
	for _, cat := range Categories() {
		g.ByCategory[cat] = nil
		g.Counts[cat] = 0
	}
	for _, p := range all {
		if p.ContractorID != contractorID {
			continue
		}
		// Buckets are listing copies. Room detail lives on the flat project
		// list and is fetched lazily; carrying it here would let the copies
		// drift once room events patch the list.
		p.Rooms, p.RoomsLoaded = nil, false
		if p.Archived {
			g.Archived = append(g.Archived, p)
			continue
		}
		g.ByCategory[p.Category] = append(g.ByCategory[p.Category], p)
		g.Counts[p.Category]++
	}
	return g
}
