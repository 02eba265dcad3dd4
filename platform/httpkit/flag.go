package httpkit

import (
	"encoding/json"
	"strings"
)

// Flag is a leniently parsed boolean request field that remembers whether
// it was sent. Real booleans are taken as is; strings count as true only
// for "true", "1", "yes" and "on" (any case), so "false" stays false.
// Numbers are true when non-zero. null is treated as absent.
type Flag struct {
	Value bool
	Set   bool
}

// NewFlag returns a set flag.
func NewFlag(v bool) Flag {
	return Flag{Value: v, Set: true}
}

// IsZero lets `omitzero` drop unset flags when encoding.
func (f Flag) IsZero() bool {
	return !f.Set
}

// Ptr returns nil when unset.
func (f Flag) Ptr() *bool {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// ParseFlag applies the lenient string rules.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = Flag{}
		return nil
	}
	f.Set = true

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.Value = b
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Value = ParseFlag(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value = n != 0
		return nil
	}

	f.Value = false
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}
