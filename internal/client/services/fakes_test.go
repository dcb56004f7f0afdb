package services

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/rpc"
)

// fakeDocs is an in-memory document store with the same stamping and
// filter rules as the server.
type fakeDocs struct {
	mu      sync.Mutex
	cols    map[string]map[string]map[string]any
	next    int
	err     error
	deletes []string
	watch   map[string]func(*rpc.Document)
	release int
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{cols: map[string]map[string]map[string]any{}, watch: map[string]func(*rpc.Document){}}
}

func normalize(data map[string]any) map[string]any {
	m, err := rpc.ToMap(data)
	if err != nil {
		panic(err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func stamp() string { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339) }

func (f *fakeDocs) col(name string) map[string]map[string]any {
	if f.cols[name] == nil {
		f.cols[name] = map[string]map[string]any{}
	}
	return f.cols[name]
}

func (f *fakeDocs) Create(_ context.Context, collection string, data map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.next++
	id := fmt.Sprintf("doc-%d", f.next)
	m := normalize(data)
	m["createdAt"], m["updatedAt"] = stamp(), stamp()
	f.col(collection)[id] = m
	return id, nil
}

func (f *fakeDocs) Put(_ context.Context, collection, id string, data map[string]any, merge bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m := normalize(data)
	old, exists := f.col(collection)[id]
	if merge && exists {
		for k, v := range m {
			old[k] = v
		}
		m = old
	}
	if _, ok := m["createdAt"]; !ok {
		m["createdAt"] = stamp()
	}
	m["updatedAt"] = stamp()
	f.col(collection)[id] = m
	return nil
}

func (f *fakeDocs) Get(_ context.Context, collection, id string) (*rpc.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.col(collection)[id]
	if !ok {
		return nil, nil
	}
	return &rpc.Document{ID: id, Data: m}, nil
}

func matches(m map[string]any, filters []rpc.Filter) bool {
	for _, fl := range filters {
		v := m[fl.Field]
		switch fl.Op {
		case rpc.OpEqual:
			if !reflect.DeepEqual(v, fl.Value) {
				return false
			}
		case rpc.OpArrayContains:
			arr, _ := v.([]any)
			found := false
			for _, x := range arr {
				if reflect.DeepEqual(x, fl.Value) {
					found = true
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (f *fakeDocs) Query(_ context.Context, collection string, filters ...rpc.Filter) ([]rpc.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []rpc.Document
	for i := 1; i <= f.next; i++ {
		id := fmt.Sprintf("doc-%d", i)
		if m, ok := f.col(collection)[id]; ok && matches(m, filters) {
			out = append(out, rpc.Document{ID: id, Data: m})
		}
	}
	return out, nil
}

func (f *fakeDocs) Update(_ context.Context, collection, id string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m, ok := f.col(collection)[id]
	if !ok {
		return common.ErrNotFound
	}
	for k, v := range normalize(data) {
		m[k] = v
	}
	m["updatedAt"] = stamp()
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.col(collection)[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.col(collection), id)
	f.deletes = append(f.deletes, collection+"/"+id)
	return nil
}

func (f *fakeDocs) Subscribe(_ context.Context, collection, id string, fn func(*rpc.Document)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.watch[collection+"/"+id] = fn
	return func() {
		f.mu.Lock()
		f.release++
		f.mu.Unlock()
	}, nil
}

func (f *fakeDocs) emit(key string, d *rpc.Document) {
	f.mu.Lock()
	fn := f.watch[key]
	f.mu.Unlock()
	fn(d)
}

// fakeAuth records calls made against the auth contract.
type fakeAuth struct {
	mu       sync.Mutex
	session  rpc.Session
	err      error
	signOuts int
	access   string
	refresh  string
	lastUp   rpc.Credentials
	pingErr  error
}

func (f *fakeAuth) SignUp(_ context.Context, creds rpc.Credentials) (rpc.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUp = creds
	if f.err != nil {
		return rpc.Session{}, f.err
	}
	f.access, f.refresh = f.session.AccessToken, f.session.RefreshToken
	return f.session, nil
}

func (f *fakeAuth) SignIn(_ context.Context, _, _ string) (rpc.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return rpc.Session{}, f.err
	}
	f.access, f.refresh = f.session.AccessToken, f.session.RefreshToken
	return f.session, nil
}

func (f *fakeAuth) SignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.access, f.refresh = "", ""
}

func (f *fakeAuth) Tokens() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access, f.refresh
}

func (f *fakeAuth) SetTokens(access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = access, refresh
}

func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

// memCache is a minimal cache.Repository.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, ns, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[ns+"/"+key], nil
}

func (m *memCache) Set(_ context.Context, ns, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[ns+"/"+key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, ns, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns+"/"+key)
	return nil
}

func (m *memCache) List(context.Context, string) (map[string][]byte, error) { return nil, nil }
func (m *memCache) Clear(context.Context, string) error                       { return nil }
func (m *memCache) Close() error                                               { return nil }
