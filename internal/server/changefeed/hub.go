// Package changefeed carries document changes from the write path to live
// subscribers, in process through Hub and across instances through Kafka.
package changefeed

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/server/models"
)

// Change types.
const (
	ChangeSnapshot = "snapshot"
	ChangeDeleted  = "deleted"
)

// Change is one committed write. For ChangeDeleted only the collection and
// id of Document are set.
type Change struct {
	Type     string
	Document models.Document
}

// Publisher accepts committed changes. Publish never fails the write that
// produced the change; delivery problems are the publisher's to log.
type Publisher interface {
	Publish(ctx context.Context, c Change)
}

// Fanout publishes to every member in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, c Change) {
	for _, p := range f {
		p.Publish(ctx, c)
	}
}

// DefaultBuffer is how many undelivered changes a subscriber may lag behind
// before the oldest is dropped.
const DefaultBuffer = 8

type key struct {
	collection string
	id         string
}

type subscriber struct {
	ch chan Change
}

// offer never blocks. A full buffer loses its oldest change, since a
// subscriber only cares about the latest state of one document.
func (s *subscriber) offer(c Change) {
	for {
		select {
		case s.ch <- c:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Hub fans changes out to the subscribers of each document.
type Hub struct {
	mu     sync.Mutex
	subs   map[key]map[*subscriber]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[key]map[*subscriber]struct{}), buffer: DefaultBuffer}
}

// Subscribe returns the changes of one document. The channel is closed by
// the returned func, which is safe to call more than once.
func (h *Hub) Subscribe(collection, id string) (<-chan Change, func()) {
	k := key{collection, id}
	s := &subscriber{ch: make(chan Change, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[k]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[k] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[k], s)
			if len(h.subs[k]) == 0 {
				delete(h.subs, k)
			}
			close(s.ch)
		})
	}
	return s.ch, cancel
}

func (h *Hub) Publish(_ context.Context, c Change) {
	k := key{c.Document.Collection, c.Document.ID}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[k] {
		s.offer(Change{Type: c.Type, Document: c.Document.Clone()})
	}
}

// Subscribers reports how many subscriptions are open on one document.
func (h *Hub) Subscribers(collection, id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key{collection, id}])
}
