// Package contractors holds the business profiles a user can work under.
// Many contractors may exist per account; exactly one is active per session
// and scopes every list query.
package contractors

import (
	"time"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

const (
	Table         = "contractors"
	SettingsTable = "contractor_settings"
)

// Settings is the per-contractor configuration blob kept in its own table so
// it can change without touching the profile row.
type Settings struct {
	VATRate        float64 `json:"vat_rate"`
	Currency       string  `json:"currency"`
	InvoicePrefix  string  `json:"invoice_prefix"`
	MaturityDays   int     `json:"maturity_days"`
	NextInvoiceSeq int     `json:"next_invoice_seq"`
}

func DefaultSettings() Settings {
	return Settings{
		VATRate:      0.23,
		Currency:     "EUR",
		MaturityDays: 14,
	}
}

type Contractor struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	RegistrationNo string `json:"registration_no"` // IČO
	TaxID          string `json:"tax_id"`          // DIČ
	VATID          string `json:"vat_id"`          // IČ DPH
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	IBAN           string `json:"iban"`

	Settings Settings `json:"settings"`

	CreatedAt time.Time `json:"created_at"`
}

func FromRecord(rec remote.Record) Contractor {
	return Contractor{
		ID:             rec.ID(),
		UserID:         rec.String("user_id"),
		Name:           rec.String("name"),
		RegistrationNo: rec.String("registration_no"),
		TaxID:          rec.String("tax_id"),
		VATID:          rec.String("vat_id"),
		Address:        rec.String("address"),
		Email:          rec.String("email"),
		Phone:          rec.String("phone"),
		IBAN:           rec.String("iban"),
		Settings:       DefaultSettings(),
		CreatedAt:      rec.Time("created_at"),
	}
}

func (c Contractor) ToRecord() remote.Record {
	rec := remote.Record{
		"user_id":         c.UserID,
		"name":            c.Name,
		"registration_no": c.RegistrationNo,
		"tax_id":          c.TaxID,
		"vat_id":          c.VATID,
		"address":         c.Address,
		"email":           c.Email,
		"phone":           c.Phone,
		"iban":            c.IBAN,
	}
	if c.ID != "" {
		rec["id"] = c.ID
	}
	return rec
}

// SettingsFromRecord maps a contractor_settings row. Missing fields fall back
// to defaults so a partial row never produces a zero VAT rate.
func SettingsFromRecord(rec remote.Record) Settings {
	s := DefaultSettings()
	if rec.Has("vat_rate") {
		s.VATRate = rec.Float("vat_rate")
	}
	if v := rec.String("currency"); v != "" {
		s.Currency = v
	}
	if v := rec.String("invoice_prefix"); v != "" {
		s.InvoicePrefix = v
	}
	if rec.Has("maturity_days") {
		s.MaturityDays = rec.Int("maturity_days")
	}
	if rec.Has("next_invoice_seq") {
		s.NextInvoiceSeq = rec.Int("next_invoice_seq")
	}
	return s
}

func (s Settings) ToRecord(contractorID string) remote.Record {
	return remote.Record{
		"contractor_id":    contractorID,
		"vat_rate":         s.VATRate,
		"currency":         s.Currency,
		"invoice_prefix":   s.InvoicePrefix,
		"maturity_days":    s.MaturityDays,
		"next_invoice_seq": s.NextInvoiceSeq,
	}
}
