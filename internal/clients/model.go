// Package clients holds billing counterparties. A client row carries a
// denormalized list of its projects; the loader discards the embedded list
// and re-derives it from freshly loaded projects.
package clients

import (
	"time"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

const Table = "clients"

// ProjectSummary is the denormalized per-client project reference.
type ProjectSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Archived bool   `json:"archived"`
}

type Client struct {
	ID             string `json:"id"`
	ContractorID   string `json:"contractor_id"`
	Name           string `json:"name"`
	RegistrationNo string `json:"registration_no"`
	TaxID          string `json:"tax_id"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`

	Projects []ProjectSummary `json:"projects"`

	CreatedAt time.Time `json:"created_at"`
}

// FromRecord intentionally drops any embedded project list from the wire row;
// it is stale by definition and rebuilt from the project snapshot.
func FromRecord(rec remote.Record) Client {
	return Client{
		ID:             rec.ID(),
		ContractorID:   rec.String("contractor_id"),
		Name:           rec.String("name"),
		RegistrationNo: rec.String("registration_no"),
		TaxID:          rec.String("tax_id"),
		Address:        rec.String("address"),
		Email:          rec.String("email"),
		Phone:          rec.String("phone"),
		CreatedAt:      rec.Time("created_at"),
	}
}

func (c Client) ToRecord() remote.Record {
	rec := remote.Record{
		"contractor_id":   c.ContractorID,
		"name":            c.Name,
		"registration_no": c.RegistrationNo,
		"tax_id":          c.TaxID,
		"address":         c.Address,
		"email":           c.Email,
		"phone":           c.Phone,
	}
	if c.ID != "" {
		rec["id"] = c.ID
	}
	return rec
}
