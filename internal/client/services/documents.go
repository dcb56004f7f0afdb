package services

import (
	"fmt"

	"github.com/dmitrijs2005/turismap/internal/rpc"
)

// serverFields are stamped by the server and never written by the client.
var serverFields = []string{"id", "createdAt", "updatedAt"}

// body converts v to a document body without the server-owned fields.
func body(v any) (map[string]any, error) {
	m, err := rpc.ToMap(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	for _, k := range serverFields {
		delete(m, k)
	}
	return m, nil
}

// decode fills v from d. The document id is exposed to v as "id".
func decode(d rpc.Document, v any) error {
	data := make(map[string]any, len(d.Data)+1)
	for k, val := range d.Data {
		data[k] = val
	}
	data["id"] = d.ID
	if err := rpc.FromMap(data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

func decodeAll[T any](docs []rpc.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func eq(field string, value any) rpc.Filter {
	return rpc.Filter{Field: field, Op: rpc.OpEqual, Value: value}
}

func contains(field string, value any) rpc.Filter {
	return rpc.Filter{Field: field, Op: rpc.OpArrayContains, Value: value}
}
