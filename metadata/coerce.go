package metadata

import (
	"strconv"
	"strings"
)

// FieldState is the outcome of probing one payload field: missing entirely,
// present but of a useless shape, or present and usable.
type FieldState int

const (
	FieldAbsent FieldState = iota
	FieldInvalid
	FieldPresent
)

type Field[T any] struct {
	State FieldState
	Value T
}

func present[T any](v T) Field[T] { return Field[T]{State: FieldPresent, Value: v} }
func absent[T any]() Field[T]     { return Field[T]{State: FieldAbsent} }

// Coerce maps an untyped payload plus the authoritative on-chain record
// into a fully-populated Metadata. payload may be any JSON value or nil;
// text is the plain-text fallback body when no candidate yielded JSON.
// Coerce never fails: every unusable field independently falls back.
func Coerce(payload interface{}, text string, rec OnChainRecord) Metadata {
	obj, _ := payload.(map[string]interface{})

	md := Metadata{
		Title:        rec.SynthesizedTitle(),
		Category:     rec.Category,
		Requirements: []string{},
		Deliverables: []string{},
		Attachments:  []string{},
		Budget:       Budget{Currency: "USD"},
	}

	if obj == nil {
		// A gateway that served readable text instead of JSON still
		// surfaces something to the viewer.
		if t := strings.TrimSpace(text); t != "" {
			md.Description = t
		}
		return md
	}

	if f := stringField(obj, "title", "name"); f.State == FieldPresent {
		md.Title = f.Value
	}
	if f := stringField(obj, "description", "details"); f.State == FieldPresent {
		md.Description = f.Value
	}
	if f := stringField(obj, "image", "imageUrl"); f.State == FieldPresent {
		md.Image = f.Value
	}
	if f := stringField(obj, "timeline"); f.State == FieldPresent {
		md.Timeline = f.Value
	}

	// The on-chain category is the source of truth whenever the payload
	// value is absent or non-numeric.
	if f := numberField(obj, "category"); f.State == FieldPresent {
		md.Category = int(f.Value)
	}

	if f := stringArrayField(obj, "requirements", "tags"); f.State == FieldPresent {
		md.Requirements = f.Value
	}
	if f := stringArrayField(obj, "deliverables"); f.State == FieldPresent {
		md.Deliverables = f.Value
	}
	if f := stringArrayField(obj, "attachments"); f.State == FieldPresent {
		md.Attachments = f.Value
	}

	if f := budgetField(obj); f.State == FieldPresent {
		md.Budget = f.Value
	}

	return md
}

// Fallback is the deterministic record returned when resolution produced
// nothing at all.
func Fallback(rec OnChainRecord) Metadata {
	return Coerce(nil, "", rec)
}

func stringField(obj map[string]interface{}, keys ...string) Field[string] {
	state := FieldAbsent
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			state = FieldInvalid
			continue
		}
		return present(s)
	}
	return Field[string]{State: state}
}

// numberField accepts JSON numbers and numeric strings; anything else is
// invalid and the caller keeps its fallback.
func numberField(obj map[string]interface{}, keys ...string) Field[float64] {
	state := FieldAbsent
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return present(n)
		case int:
			return present(float64(n))
		case int64:
			return present(float64(n))
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return present(parsed)
			}
			state = FieldInvalid
		default:
			state = FieldInvalid
		}
	}
	return Field[float64]{State: state}
}

// stringArrayField only accepts arrays whose every element is a string;
// a partially-typed array counts as invalid rather than being truncated.
func stringArrayField(obj map[string]interface{}, keys ...string) Field[[]string] {
	state := FieldAbsent
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		arr, ok := v.([]interface{})
		if !ok {
			state = FieldInvalid
			continue
		}
		out := make([]string, 0, len(arr))
		valid := true
		for _, el := range arr {
			s, ok := el.(string)
			if !ok {
				valid = false
				break
			}
			out = append(out, s)
		}
		if !valid {
			state = FieldInvalid
			continue
		}
		return present(out)
	}
	return Field[[]string]{State: state}
}

func budgetField(obj map[string]interface{}) Field[Budget] {
	var sub map[string]interface{}
	for _, k := range []string{"budget", "pricing"} {
		if m, ok := obj[k].(map[string]interface{}); ok {
			sub = m
			break
		}
	}
	if sub == nil {
		return absent[Budget]()
	}

	b := Budget{Currency: "USD"}
	if f := numberField(sub, "min"); f.State == FieldPresent {
		b.Min = f.Value
	}
	if f := numberField(sub, "max"); f.State == FieldPresent {
		b.Max = f.Value
	}
	if f := stringField(sub, "currency"); f.State == FieldPresent {
		b.Currency = f.Value
	}
	return present(b)
}
