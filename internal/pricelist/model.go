// Package pricelist holds priced line-item tables: a contractor-wide general
// list, or a frozen per-project snapshot captured so later price edits don't
// retroactively change historical figures.
package pricelist

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

const Table = "price_lists"

// Item is one priced line. Capacity, when set, is coverage per purchased unit
// (e.g. square meters per bag); material cost then rounds the required units up.
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Price    float64  `json:"price"`
	Capacity *float64 `json:"capacity,omitempty"`
}

type PriceList struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	// ProjectID is set on frozen per-project snapshots, empty on general lists.
	ProjectID string `json:"project_id,omitempty"`
	Name      string `json:"name"`
	General   bool   `json:"general"`

	Work          []Item `json:"work"`
	Material      []Item `json:"material"`
	Installations []Item `json:"installations"`
	Others        []Item `json:"others"`

	CreatedAt time.Time `json:"created_at"`
}

// FromRecord maps a wire row to a PriceList. The four category columns are
// JSON blobs; a malformed blob is logged and treated as empty.
func FromRecord(rec remote.Record) PriceList {
	p := PriceList{
		ID:           rec.ID(),
		ContractorID: rec.String("contractor_id"),
		ProjectID:    rec.String("project_id"),
		Name:         rec.String("name"),
		General:      rec.Bool("general"),
		CreatedAt:    rec.Time("created_at"),
	}
	p.Work = decodeItems(rec, "work", p.ID)
	p.Material = decodeItems(rec, "material", p.ID)
	p.Installations = decodeItems(rec, "installations", p.ID)
	p.Others = decodeItems(rec, "others", p.ID)
	return p
}

func (p PriceList) ToRecord() remote.Record {
	rec := remote.Record{
		"contractor_id": p.ContractorID,
		"name":          p.Name,
		"general":       p.General,
		"work":          p.Work,
		"material":      p.Material,
		"installations": p.Installations,
		"others":        p.Others,
	}
	if p.ID != "" {
		rec["id"] = p.ID
	}
	if p.ProjectID != "" {
		rec["project_id"] = p.ProjectID
	}
	return rec
}

// ParseSnapshot decodes an embedded legacy price-list JSON blob. The blob is
// a whole PriceList object; nil is returned for empty or malformed input.
func ParseSnapshot(raw []byte) *PriceList {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var p PriceList
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("Warning: malformed embedded price list snapshot, ignoring: %v", err)
		return nil
	}
	return &p
}

// Items returns all line items across categories.
func (p PriceList) Items() []Item {
	out := make([]Item, 0, len(p.Work)+len(p.Material)+len(p.Installations)+len(p.Others))
	out = append(out, p.Work...)
	out = append(out, p.Material...)
	out = append(out, p.Installations...)
	out = append(out, p.Others...)
	return out
}

func (p PriceList) FindItem(id string) (Item, bool) {
	for _, it := range p.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Cost prices a quantity against an item. Capacity-aware items charge whole
// purchased units.
func Cost(it Item, quantity float64) float64 {
	if it.Capacity != nil && *it.Capacity > 0 {
		return math.Ceil(quantity / *it.Capacity) * it.Price
	}
	return quantity * it.Price
}

func decodeItems(rec remote.Record, key, listID string) []Item {
	raw := rec.RawJSON(key)
	if raw == nil {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("Warning: malformed %s items in price list %s, ignoring: %v", key, listID, err)
		return nil
	}
	return items
}
