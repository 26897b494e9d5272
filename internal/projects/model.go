// Package projects holds construction projects. A project belongs to exactly
// one contractor, optionally one client, sits in a fixed category bucket, and
// may carry a frozen price-list snapshot so historical pricing stays stable.
package projects

import (
	"encoding/json"
	"log"
	"time"

	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

const Table = "projects"

type Category string

const (
	CategoryFlats      Category = "flats"
	CategoryHouses     Category = "houses"
	CategoryCommercial Category = "commercial"
	CategoryOther      Category = "other"
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{CategoryFlats, CategoryHouses, CategoryCommercial, CategoryOther}
}

func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryFlats, CategoryHouses, CategoryCommercial:
		return Category(s)
	default:
		return CategoryOther
	}
}

type Photo struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	Caption string    `json:"caption,omitempty"`
	TakenAt time.Time `json:"taken_at"`
}

type HistoryEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Note   string    `json:"note,omitempty"`
}

type Project struct {
	ID           string   `json:"id"`
	ContractorID string   `json:"contractor_id"`
	ClientID     string   `json:"client_id,omitempty"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Archived     bool     `json:"archived"`

	// PriceListID links the frozen snapshot row; Snapshot holds the older
	// embedded-JSON form. Resolution prefers the linked row.
	PriceListID string               `json:"price_list_id,omitempty"`
	Snapshot    *pricelist.PriceList `json:"snapshot,omitempty"`

	Photos  []Photo        `json:"photos"`
	History []HistoryEntry `json:"history"`

	// Rooms are lazily loaded; RoomsLoaded distinguishes "no rooms" from
	// "not yet fetched".
	Rooms       []rooms.Room `json:"rooms"`
	RoomsLoaded bool         `json:"rooms_loaded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromRecord maps a wire row. A malformed photo/history blob logs a warning
// and yields an empty collection.
func FromRecord(rec remote.Record) Project {
	p := Project{
		ID:           rec.ID(),
		ContractorID: rec.String("contractor_id"),
		ClientID:     rec.String("client_id"),
		Name:         rec.String("name"),
		Category:     ParseCategory(rec.String("category")),
		Archived:     rec.Bool("archived"),
		PriceListID:  rec.String("price_list_id"),
		Snapshot:     pricelist.ParseSnapshot(rec.RawJSON("price_list_snapshot")),
		CreatedAt:    rec.Time("created_at"),
		UpdatedAt:    rec.Time("updated_at"),
	}

	if raw := rec.RawJSON("photos"); raw != nil {
		if err := json.Unmarshal(raw, &p.Photos); err != nil {
			log.Printf("Warning: malformed photos blob on project %s, ignoring: %v", p.ID, err)
			p.Photos = nil
		}
	}
	if raw := rec.RawJSON("history"); raw != nil {
		if err := json.Unmarshal(raw, &p.History); err != nil {
			log.Printf("Warning: malformed history blob on project %s, ignoring: %v", p.ID, err)
			p.History = nil
		}
	}
	return p
}

func (p Project) ToRecord() remote.Record {
	rec := remote.Record{
		"contractor_id": p.ContractorID,
		"name":          p.Name,
		"category":      string(p.Category),
		"archived":      p.Archived,
	}
	if p.ID != "" {
		rec["id"] = p.ID
	}
	if p.ClientID != "" {
		rec["client_id"] = p.ClientID
	}
	if p.PriceListID != "" {
		rec["price_list_id"] = p.PriceListID
	}
	if p.Snapshot != nil {
		rec["price_list_snapshot"] = p.Snapshot
	}
	if p.Photos != nil {
		rec["photos"] = p.Photos
	}
	if p.History != nil {
		rec["history"] = p.History
	}
	return rec
}

// EffectivePriceList resolves the list a project prices against:
// linked snapshot row first, then the embedded legacy snapshot, then the
// contractor's general list. Sources are never mixed.
func EffectivePriceList(p Project, lists []pricelist.PriceList, general pricelist.PriceList) pricelist.PriceList {
	if p.PriceListID != "" {
		for _, l := range lists {
			if l.ID == p.PriceListID {
				return l
			}
		}
	}
	if p.Snapshot != nil {
		return *p.Snapshot
	}
	return general
}

// Total sums the loaded rooms. Rooms that were never fetched contribute
// nothing; callers wanting exact figures load rooms first.
func (p Project) Total() float64 {
	var sum float64
	for _, r := range p.Rooms {
		sum += r.Total()
	}
	return sum
}
