package models

import (
	"reflect"
	"time"
)

// Document is one record of a collection. Data never holds the id or the
// timestamps; those live in their own fields.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Filter operators.
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

type Filter struct {
	Field string
	Op    string
	Value any
}

// Match reports whether data satisfies f. Numbers compare by value
// regardless of their Go type.
func (f Filter) Match(data map[string]any) bool {
	v, ok := data[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return equalValues(v, f.Value)
	case OpArrayContains:
		items, ok := Normalize(v).([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if equalValues(item, f.Value) {
				return true
			}
		}
	}
	return false
}

// MatchAll reports whether data satisfies every filter.
func MatchAll(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(data) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// Normalize converts v to the shapes encoding/json produces: float64 for
// numbers, []any for slices and map[string]any for objects.
func Normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		return CloneData(t)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = Normalize(rv.Index(i).Interface())
			}
			return out
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return v
			}
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = Normalize(iter.Value().Interface())
			}
			return out
		}
		return v
	}
}

// CloneData deep-copies a document body.
func CloneData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	d.Data = CloneData(d.Data)
	return d
}
