package cli

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoggedIn_NoSession(t *testing.T) {
	app := &App{}
	if app.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == false without a session source")
	}
	app.sessions = staticSessions{}
	if app.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == false when no session is open")
	}
}

func TestIsLoggedIn_WithSession(t *testing.T) {
	app := &App{sessions: staticSessions{s: &session.Session{Profile: models.Profile{ID: "u1"}}}}
	if !app.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == true when a session is open")
	}
}

func TestGetStatus(t *testing.T) {
	a := &App{}
	assert.Equal(t, "", a.getStatus())

	a.mode = ModeOffline
	assert.Equal(t, "(offline)", a.getStatus())

	a.sessions = staticSessions{s: &session.Session{Profile: models.Profile{Email: "ana@example.com"}}}
	a.mode = ModeOnline
	assert.Equal(t, "(ana@example.com online)", a.getStatus())
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	app := &App{}
	var buf bytes.Buffer

	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&buf)

	app.setMode(ModeOnline)
	if app.Mode() != ModeOnline {
		t.Fatalf("expected mode to be %q, got %q", ModeOnline, app.Mode())
	}
	if got := buf.String(); got == "" {
		t.Fatalf("expected log output on mode change, got empty")
	}

	buf.Reset()

	app.setMode(ModeOnline)
	if got := buf.String(); got != "" {
		t.Fatalf("expected no log output when mode doesn't change, got: %q", got)
	}

	app.setMode(ModeOffline)
	if app.Mode() != ModeOffline {
		t.Fatalf("expected mode to be %q, got %q", ModeOffline, app.Mode())
	}
}

func TestStartOnlineStatusWatcher_FollowsPing(t *testing.T) {
	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&bytes.Buffer{})

	auth := &fakeAuthenticator{}
	app := &App{auth: auth, mode: ModeOffline}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return auth.pings.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, ModeOnline, app.Mode())

	auth.pingErr.Store(true)
	ctx, cancel = context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		defer close(done)
		app.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
	}()
	n := auth.pings.Load()
	require.Eventually(t, func() bool { return auth.pings.Load() >= n+2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, ModeOffline, app.Mode())
}

func TestSwapMode(t *testing.T) {
	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&bytes.Buffer{})

	onlyOnline := func(cur Mode) bool { return cur == ModeOnline }
	tests := []struct {
		name    string
		from    Mode
		cond    func(Mode) bool
		to      Mode
		swapped bool
		want    Mode
	}{
		{"online goes offline", ModeOnline, onlyOnline, ModeOffline, true, ModeOffline},
		{"disabled stays disabled", ModeDisabled, onlyOnline, ModeOffline, false, ModeDisabled},
		{"same mode is not a switch", ModeOffline, func(Mode) bool { return true }, ModeOffline, false, ModeOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{mode: tt.from}
			assert.Equal(t, tt.swapped, app.swapMode(tt.cond, tt.to))
			assert.Equal(t, tt.want, app.Mode())
		})
	}
}

func TestStartOnlineStatusWatcher_ConcurrentReaders(t *testing.T) {
	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&bytes.Buffer{})

	auth := &fakeAuthenticator{}
	app := &App{auth: auth, mode: ModeOffline}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.StartOnlineStatusWatcher(ctx, time.Millisecond)
	}()

	// the REPL reads the mode for the prompt and switches it on sign in
	// while the watcher flips it on every ping
	for i := 0; i < 200; i++ {
		auth.pingErr.Store(i%2 == 0)
		_ = app.getStatus()
		if i%50 == 0 {
			app.setMode(ModeOnline)
		}
		time.Sleep(100 * time.Microsecond)
	}
	cancel()
	<-done

	assert.Contains(t, []Mode{ModeOnline, ModeOffline}, app.Mode())
}
