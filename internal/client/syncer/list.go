package syncer

import "sync"

// list is an ordered, id-unique, concurrency-safe slice of records.
type list[T any] struct {
	mu    sync.RWMutex
	id    func(T) string
	items []T
}

func newList[T any](id func(T) string) *list[T] {
	return &list[T]{id: id}
}

func (l *list[T]) indexLocked(id string) int {
	for i, it := range l.items {
		if l.id(it) == id {
			return i
		}
	}
	return -1
}

// replace swaps the whole content, keeping the first record of any
// duplicated id.
func (l *list[T]) replace(items []T) {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, dup := seen[l.id(it)]; dup {
			continue
		}
		seen[l.id(it)] = struct{}{}
		out = append(out, it)
	}

	l.mu.Lock()
	l.items = out
	l.mu.Unlock()
}

func (l *list[T]) prepend(it T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(l.id(it)); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	l.items = append([]T{it}, l.items...)
}

// update applies fn to the record with id and reports whether it exists.
func (l *list[T]) update(id string, fn func(T) T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	l.items[i] = fn(l.items[i])
	return true
}

func (l *list[T]) remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

func (l *list[T]) get(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

func (l *list[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

func (l *list[T]) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
