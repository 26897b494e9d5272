package contractors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

func TestSettingsFromRecordDefaults(t *testing.T) {
	t.Run("empty row keeps every default", func(t *testing.T) {
		s := SettingsFromRecord(remote.Record{})
		assert.Equal(t, DefaultSettings(), s)
		assert.Equal(t, 0.23, s.VATRate)
		assert.Equal(t, "EUR", s.Currency)
		assert.Equal(t, 14, s.MaturityDays)
	})

	t.Run("partial row overrides only what it carries", func(t *testing.T) {
		s := SettingsFromRecord(remote.Record{"invoice_prefix": "SK", "next_invoice_seq": 41})
		assert.Equal(t, "SK", s.InvoicePrefix)
		assert.Equal(t, 41, s.NextInvoiceSeq)
		assert.Equal(t, 0.23, s.VATRate, "missing vat_rate never becomes zero")
	})

	t.Run("explicit zero vat rate is honored", func(t *testing.T) {
		s := SettingsFromRecord(remote.Record{"vat_rate": 0.0})
		assert.Equal(t, 0.0, s.VATRate)
	})
}

func TestContractorRecordRoundTrip(t *testing.T) {
	c := FromRecord(remote.Record{
		"id": "con-1", "user_id": "user-1", "name": "Stav s.r.o.",
		"registration_no": "12345678", "tax_id": "2021234567", "vat_id": "SK2021234567",
		"iban": "SK31 1200 0000 1987 4263 7541",
	})
	assert.Equal(t, "Stav s.r.o.", c.Name)
	assert.Equal(t, "SK2021234567", c.VATID)
	assert.Equal(t, DefaultSettings(), c.Settings, "profile rows never carry settings")

	rec := c.ToRecord()
	assert.Equal(t, "con-1", rec.ID())
	assert.False(t, rec.Has("vat_rate"), "settings stay in their own table")
}
