package syncer

import (
	"context"
	"sync"
)

// Subscription is a realtime feed that must be released. Close, the end of
// the context it was opened with, and the owner's shutdown all release it;
// the underlying release runs exactly once.
type Subscription struct {
	once    sync.Once
	release func()
	done    chan struct{}
	onClose func(*Subscription)
}

func newSubscription(ctx context.Context, release func(), onClose func(*Subscription)) *Subscription {
	s := &Subscription{release: release, done: make(chan struct{}), onClose: onClose}
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.release()
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// Done is closed once the subscription has been released.
func (s *Subscription) Done() <-chan struct{} { return s.done }
