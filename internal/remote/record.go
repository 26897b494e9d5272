package remote

import (
	"encoding/json"
	"time"
)

// Record is a flat wire-format row as returned by the remote data service.
// Field access helpers tolerate missing or differently-typed values; absence
// of a field is normal, not exceptional.
type Record map[string]any

func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// ID returns the record's "id" field as a string, covering the numeric and
// string id shapes the service emits.
func (r Record) ID() string {
	return r.String("id")
}

func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		// integral ids come through JSON as float64
		return json.Number(trimFloat(v)).String()
	default:
		return ""
	}
}

func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case int:
		return float64(v)
	default:
		return 0
	}
}

// FloatPtr distinguishes "absent or null" from zero.
func (r Record) FloatPtr(key string) *float64 {
	if v, ok := r[key]; ok && v != nil {
		f := r.Float(key)
		return &f
	}
	return nil
}

func (r Record) Int(key string) int {
	return int(r.Float(key))
}

func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// Time parses RFC3339-ish timestamps; the zero time is returned for anything
// unparseable.
func (r Record) Time(key string) time.Time {
	s := r.String(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RawJSON returns the field as JSON bytes, whether it arrived as an embedded
// string blob or as an already-decoded value. Returns nil when absent.
func (r Record) RawJSON(key string) []byte {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return []byte(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func trimFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
