package rpc

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_DocumentRequest(t *testing.T) {
	in := DocumentRequest{
		Collection: "favorites",
		Data:       map[string]any{"placeId": "p1", "rating": 4.5, "tags": []any{"beach"}},
		Filters:    []Filter{{Field: "userId", Op: OpEqual, Value: "u1"}},
	}

	st, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "favorites", st.Fields["collection"].GetStringValue())

	var out DocumentRequest
	require.NoError(t, Decode(st, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_TypedValues(t *testing.T) {
	type plan struct {
		Places []string  `json:"places"`
		Start  time.Time `json:"startDate"`
	}
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	st, err := Encode(plan{Places: []string{"a", "b"}, Start: start})
	require.NoError(t, err)

	places := st.Fields["places"].GetListValue().GetValues()
	require.Len(t, places, 2)
	assert.Equal(t, "b", places[1].GetStringValue())
	assert.Equal(t, "2025-03-01T12:00:00Z", st.Fields["startDate"].GetStringValue())
}

func TestDecode_NilLeavesTarget(t *testing.T) {
	out := PingResponse{Status: "keep"}
	require.NoError(t, Decode(nil, &out))
	assert.Equal(t, "keep", out.Status)
}

func TestEncode_RejectsNonObjects(t *testing.T) {
	_, err := Encode([]string{"not", "an", "object"})
	require.Error(t, err)

	_, err = Encode(make(chan int))
	require.Error(t, err)
}

func TestToMapFromMap(t *testing.T) {
	type fav struct {
		PlaceID string  `json:"placeId"`
		Rating  float64 `json:"rating"`
	}
	m, err := ToMap(fav{PlaceID: "p9", Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"placeId": "p9", "rating": 3.0}, m)

	var back fav
	require.NoError(t, FromMap(m, &back))
	assert.Equal(t, fav{PlaceID: "p9", Rating: 3}, back)
}
