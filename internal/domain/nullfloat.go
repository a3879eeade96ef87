package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// NullFloat is a float64 that may be missing. The zero value is missing.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some returns a valid NullFloat. NaN and ±Inf are treated as missing.
func Some(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// None returns a missing value.
func None() NullFloat { return NullFloat{} }

// Or returns the value, or def when missing.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Float64
}

// Map applies fn to a valid value and leaves a missing value missing.
func (n NullFloat) Map(fn func(float64) float64) NullFloat {
	if !n.Valid {
		return n
	}
	return Some(fn(n.Float64))
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else
// decodes as missing instead of failing, matching how provider payloads with
// placeholder strings are handled.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = NullFloat{}
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = NullFloat{}
		return nil
	}
	*n = Some(v)
	return nil
}
