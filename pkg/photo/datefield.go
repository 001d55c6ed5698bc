package photo

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DateField is a year, month or day as sent over the wire. Older backends send a plain optional
// integer, newer ones a nullable wrapper such as {"Int64": 2020, "Valid": true}. The shape is
// detected once while decoding and collapsed by Value.
type DateField struct {
	// Wrapped is true when the field arrived as a nullable wrapper object.
	Wrapped bool
	Int     int
	// Valid is the wrapper's validity flag, or non-null for plain values.
	Valid bool
}

// Plain returns a DateField for a plain optional integer.
func Plain(v *int) DateField {
	if v == nil {
		return DateField{}
	}
	return DateField{Int: *v, Valid: true}
}

// Wrapped returns a DateField for a nullable wrapper.
func Wrapped(v int, valid bool) DateField {
	return DateField{Wrapped: true, Int: v, Valid: valid}
}

// Value returns the canonical optional: nil unless the value was present and valid.
func (d DateField) Value() *int {
	if !d.Valid {
		return nil
	}
	v := d.Int
	return &v
}

// wrapper covers sql.Null* style encodings as well as {value, valid}. Key matching is
// case-insensitive, so "Int64" and "int64" both land here.
type wrapper struct {
	Value json.RawMessage `json:"value"`
	Int64 json.RawMessage `json:"int64"`
	Int32 json.RawMessage `json:"int32"`
	Int16 json.RawMessage `json:"int16"`
	Valid bool            `json:"valid"`
}

// UnmarshalJSON implements json.Unmarshaler. Values it cannot interpret decode as absent.
func (d *DateField) UnmarshalJSON(b []byte) error {
	*d = DateField{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || isNull(b) {
		return nil
	}

	if b[0] != '{' {
		d.Int, d.Valid = decodeInt(b)
		return nil
	}

	d.Wrapped = true
	var w wrapper
	if err := json.Unmarshal(b, &w); err != nil {
		return nil
	}
	if !w.Valid {
		return nil
	}
	for _, raw := range []json.RawMessage{w.Value, w.Int64, w.Int32, w.Int16} {
		if len(raw) == 0 || isNull(raw) {
			continue
		}
		d.Int, d.Valid = decodeInt(raw)
		return nil
	}
	return nil
}

// MarshalJSON writes the field back in the shape it arrived in.
func (d DateField) MarshalJSON() ([]byte, error) {
	if d.Wrapped {
		return json.Marshal(struct {
			Value int  `json:"value"`
			Valid bool `json:"valid"`
		}{d.Int, d.Valid})
	}
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.Int)), nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func decodeInt(b []byte) (int, bool) {
	if isNull(b) {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		if f != math.Trunc(f) || f >= math.MaxInt || f < math.MinInt {
			return 0, false
		}
		return int(f), true
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
