package syncer

import (
	"context"
	"sync"
)

// KeyedQueue runs functions submitted for the same key one at a time, in
// submission order. Different keys never wait for each other.
type KeyedQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{tails: make(map[string]chan struct{})}
}

// Do waits for every earlier call with the same key to finish, then runs fn.
// If ctx ends while waiting, fn is skipped and ctx.Err() returned; later
// calls for the key still wait for the earlier ones.
func (q *KeyedQueue) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	q.mu.Lock()
	prev := q.tails[key]
	done := make(chan struct{})
	q.tails[key] = done
	q.mu.Unlock()

	release := func() {
		q.mu.Lock()
		if q.tails[key] == done {
			delete(q.tails, key)
		}
		q.mu.Unlock()
		close(done)
	}

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				release()
			}()
			return ctx.Err()
		}
	}

	defer release()
	return fn(ctx)
}

// Len returns the number of keys with queued or running work.
func (q *KeyedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}
