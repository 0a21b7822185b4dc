// Package survey holds the raw questionnaire response and the normalization
// layer that turns free-text and range-label answers into numeric quantities.
//
// A Response is deliberately loose: the form that produces it may be the
// simple variant (flat numeric hour/day fields) or the extended variant
// (range labels, device ages, charging and power-source answers). Both are
// read through the same accessors, and any field that is missing or cannot be
// parsed resolves to a neutral value instead of an error.
package survey

import (
	"maps"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Response is a flat mapping from form field name to raw answer.
// Values are strings, numbers or booleans as decoded from JSON or YAML.
type Response map[string]any

// Clone returns a shallow copy of the response. Values are scalars, so the
// copy can be edited without touching the original.
func (r Response) Clone() Response {
	if r == nil {
		return Response{}
	}
	return maps.Clone(r)
}

// Set stores a raw value for field.
func (r Response) Set(field string, value any) {
	r[field] = value
}

// Lookup returns the raw value of the first alias present in the response.
func (r Response) Lookup(aliases ...string) (any, bool) {
	for _, name := range aliases {
		if v, ok := r[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether any of the aliases is present.
func (r Response) Has(aliases ...string) bool {
	_, ok := r.Lookup(aliases...)
	return ok
}

// Text returns the trimmed string form of the first present alias, or "".
func (r Response) Text(aliases ...string) string {
	v, ok := r.Lookup(aliases...)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Number parses the first present alias as a base-10 number.
// Empty, non-numeric and negative answers resolve to 0.
func (r Response) Number(aliases ...string) float64 {
	v, ok := r.Lookup(aliases...)
	if !ok {
		return 0
	}
	n, ok := parseNumber(v)
	if !ok {
		return 0
	}
	return n
}

// Bool reports whether the first present alias is the boolean true.
// Strings such as "true" or "yes" are not accepted.
func (r Response) Bool(aliases ...string) bool {
	v, ok := r.Lookup(aliases...)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return isBool && b
}

// Fields returns the field names in sorted order.
func (r Response) Fields() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseNumber coerces a raw answer to a non-negative float64.
// Booleans are not numbers here even though cast would accept them.
func parseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case bool:
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		v = s
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if n < 0 {
		return 0, true
	}
	return n, true
}

// Apply stores an edited text answer. Empty text removes the field; "true"
// and "false" (any case) become booleans so that noDevices can be set from
// a command line; anything else is kept as text and parsed on read.
func (r Response) Apply(field, text string) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		delete(r, field)
	case strings.EqualFold(text, "true"):
		r[field] = true
	case strings.EqualFold(text, "false"):
		r[field] = false
	default:
		r[field] = text
	}
}
