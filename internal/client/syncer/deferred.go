package syncer

import (
	"context"
	"sync"
	"time"
)

// timer is the part of *time.Timer the Deferrer needs.
type timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the production value.
type AfterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Task is the deferred work. Timer-driven runs get a background context;
// Fire passes the caller's.
type Task func(ctx context.Context) error

type deferredTask struct {
	t  timer
	fn Task
}

// Deferrer holds at most one delayed task per key. A task either fires
// exactly once or is cancelled; never both.
type Deferrer struct {
	mu    sync.Mutex
	after AfterFunc
	tasks map[string]*deferredTask
}

func NewDeferrer(after AfterFunc) *Deferrer {
	if after == nil {
		after = realAfterFunc
	}
	return &Deferrer{after: after, tasks: make(map[string]*deferredTask)}
}

// Schedule runs fn after delay. An earlier task for the same key is
// cancelled first.
func (d *Deferrer) Schedule(key string, delay time.Duration, fn Task) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.tasks[key]; ok {
		old.t.Stop()
	}

	task := &deferredTask{fn: fn}
	d.tasks[key] = task
	task.t = d.after(delay, func() { _ = d.run(key, task) })
}

// take removes task from the table if it is still the current one for key.
func (d *Deferrer) take(key string, task *deferredTask) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tasks[key] != task {
		return false
	}
	delete(d.tasks, key)
	return true
}

func (d *Deferrer) run(key string, task *deferredTask) error {
	if !d.take(key, task) {
		return nil
	}
	return task.fn(context.Background())
}

// Cancel drops the task for key. It returns false when there is nothing to
// cancel, including when the task has already fired.
func (d *Deferrer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.tasks[key]
	if !ok {
		return false
	}
	delete(d.tasks, key)
	task.t.Stop()
	return true
}

// Fire runs the task for key now, on the calling goroutine, with ctx.
func (d *Deferrer) Fire(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	task, ok := d.tasks[key]
	if ok {
		delete(d.tasks, key)
		task.t.Stop()
	}
	d.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, task.fn(ctx)
}

// Scheduled reports whether a task for key is waiting to fire.
func (d *Deferrer) Scheduled(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.tasks[key]
	return ok
}

func (d *Deferrer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}
