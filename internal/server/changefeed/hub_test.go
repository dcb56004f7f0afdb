package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(collection, id string, data map[string]any) Change {
	return Change{Type: ChangeSnapshot, Document: models.Document{Collection: collection, ID: id, Data: data}}
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
		return Change{}
	}
}

func TestHub_DeliversToDocumentSubscribers(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("sellers", "s1")
	defer cancel()
	other, cancelOther := h.Subscribe("sellers", "s2")
	defer cancelOther()

	h.Publish(context.Background(), snapshot("sellers", "s1", map[string]any{"storeName": "Loja"}))

	got := receive(t, ch)
	assert.Equal(t, ChangeSnapshot, got.Type)
	assert.Equal(t, "Loja", got.Document.Data["storeName"])

	select {
	case c := <-other:
		t.Fatalf("unexpected change for another document: %+v", c)
	default:
	}
}

func TestHub_SubscribersGetIndependentCopies(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe("products", "p1")
	defer cancelA()
	b, cancelB := h.Subscribe("products", "p1")
	defer cancelB()

	h.Publish(context.Background(), snapshot("products", "p1", map[string]any{"price": 10.0}))

	ca := receive(t, a)
	cb := receive(t, b)
	ca.Document.Data["price"] = 99.0
	assert.Equal(t, 10.0, cb.Document.Data["price"])
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("users", "u1")
	require.Equal(t, 1, h.Subscribers("users", "u1"))

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("users", "u1"))

	// publishing after cancel must not panic on the closed channel
	h.Publish(context.Background(), snapshot("users", "u1", nil))
}

func TestHub_SlowSubscriberKeepsLatest(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("plans", "p1")
	defer cancel()

	for i := 0; i < DefaultBuffer+5; i++ {
		h.Publish(context.Background(), snapshot("plans", "p1", map[string]any{"n": float64(i)}))
	}

	var last Change
	for i := 0; i < DefaultBuffer; i++ {
		last = receive(t, ch)
	}
	assert.Equal(t, float64(DefaultBuffer+4), last.Document.Data["n"])
}

type recorder struct{ got []Change }

func (r *recorder) Publish(_ context.Context, c Change) { r.got = append(r.got, c) }

func TestFanout_PublishesToAll(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Fanout{a, b}.Publish(context.Background(), snapshot("favorites", "f1", nil))
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}
