// Package rooms holds per-project rooms and their work items. Rooms are
// lazily populated: a room without loaded work items is "not yet fetched",
// never an error state.
package rooms

import (
	"time"

	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

const (
	Table          = "rooms"
	WorkItemsTable = "work_items"
)

// WorkItem is one priced piece of work or material inside a room.
type WorkItem struct {
	ID       string   `json:"id"`
	RoomID   string   `json:"room_id"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"` // work, material, installation, other
	Unit     string   `json:"unit"`
	Quantity float64  `json:"quantity"`
	Price    float64  `json:"price"`
	Capacity *float64 `json:"capacity,omitempty"`
}

type Room struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`

	WorkItems []WorkItem `json:"work_items"`
	// Loaded is false until the work items have been fetched at least once.
	Loaded bool `json:"loaded"`
	// Stale marks loaded work items as outdated; consumers re-fetch on next
	// access. Advisory: the data is kept, not evicted.
	Stale bool `json:"stale"`

	CreatedAt time.Time `json:"created_at"`
}

func FromRecord(rec remote.Record) Room {
	return Room{
		ID:        rec.ID(),
		ProjectID: rec.String("project_id"),
		Name:      rec.String("name"),
		CreatedAt: rec.Time("created_at"),
	}
}

func (r Room) ToRecord() remote.Record {
	rec := remote.Record{
		"project_id": r.ProjectID,
		"name":       r.Name,
	}
	if r.ID != "" {
		rec["id"] = r.ID
	}
	return rec
}

func WorkItemFromRecord(rec remote.Record) WorkItem {
	return WorkItem{
		ID:       rec.ID(),
		RoomID:   rec.String("room_id"),
		Name:     rec.String("name"),
		Kind:     rec.String("kind"),
		Unit:     rec.String("unit"),
		Quantity: rec.Float("quantity"),
		Price:    rec.Float("price"),
		Capacity: rec.FloatPtr("capacity"),
	}
}

func (w WorkItem) ToRecord() remote.Record {
	rec := remote.Record{
		"room_id":  w.RoomID,
		"name":     w.Name,
		"kind":     w.Kind,
		"unit":     w.Unit,
		"quantity": w.Quantity,
		"price":    w.Price,
	}
	if w.Capacity != nil {
		rec["capacity"] = *w.Capacity
	}
	if w.ID != "" {
		rec["id"] = w.ID
	}
	return rec
}

// ItemTotal prices one work item, honoring capacity-based material coverage.
func ItemTotal(w WorkItem) float64 {
	return pricelist.Cost(pricelist.Item{Price: w.Price, Capacity: w.Capacity}, w.Quantity)
}

// Total sums the room's work items.
func (r Room) Total() float64 {
	var sum float64
	for _, w := range r.WorkItems {
		sum += ItemTotal(w)
	}
	return sum
}
