package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/config"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/services"
	"github.com/dmitrijs2005/turismap/internal/client/session"
	"github.com/dmitrijs2005/turismap/internal/client/syncer"
	"github.com/dmitrijs2005/turismap/internal/client/validate"
	"github.com/dmitrijs2005/turismap/internal/filex"
	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/netx"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// sessionSource yields the session of the signed-in user, or nil.
type sessionSource interface {
	Current() *session.Session
}

type App struct {
	config   *config.Config
	auth     services.Authenticator
	sessions sessionSource
	validate *validate.Validator
	log      logging.Logger

	// mode is written by the status watcher and read by the REPL
	modeMu sync.RWMutex
	mode   Mode

	reader *bufio.Reader
	out    io.Writer

	closers []func(context.Context) error
}

// NewApp opens the local cache, dials the server and builds the auth
// service and session manager. Nothing is sent over the network yet.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logging.Config{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Output:  os.Stderr,
		Service: "turismap-cli",
	})

	dir, err := filex.EnsureDir(filepath.Dir(c.DataDir), filepath.Base(c.DataDir))
	if err != nil {
		return nil, err
	}

	store, err := client.OpenCache(ctx, c.CacheBackend, dir)
	if err != nil {
		logger.Error(ctx, "error opening local cache", "dir", dir, "error", err)
		return nil, err
	}

	api, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	auth := services.NewAuthService(api, store, logger.With("module", "auth"))
	media := services.NewMediaService(api, netx.NewUploader(nil))

	manager := session.NewManager(auth, session.Deps{
		Docs:  api,
		Media: media,
		Cache: store,
		Log:   logger.With("module", "session"),
		Options: []syncer.Option{
			syncer.WithGraceWindow(c.GraceWindow),
			syncer.WithRemoteTimeout(c.RemoteTimeout),
		},
	})

	a := &App{
		config:   c,
		auth:     auth,
		sessions: manager,
		validate: validate.New(),
		log:      logger,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	manager.OnOpen = a.onSessionOpen
	manager.Start(ctx)

	a.closers = []func(context.Context) error{
		manager.Stop,
		func(context.Context) error { return api.Close() },
		func(context.Context) error { return store.Close() },
	}
	return a, nil
}

func (a *App) onSessionOpen(s *session.Session) {
	if s.Storefront == nil {
		return
	}
	if _, err := s.WatchStore(func(p *models.StoreProfile) {
		if p == nil {
			fmt.Fprintln(a.out, "\nYour storefront was removed on the server.")
			return
		}
		a.log.Debug(s.Context(), "storefront changed remotely", "store", p.StoreName)
	}); err != nil {
		a.log.Warn(s.Context(), "storefront updates unavailable", "error", err)
	}
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.swapMode(func(cur Mode) bool { return cur != mode }, mode)
}

// swapMode switches to mode when cond accepts the current one. The check
// and the switch happen under one lock.
func (a *App) swapMode(cond func(cur Mode) bool, mode Mode) bool {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if !cond(a.mode) || a.mode == mode {
		return false
	}
	a.mode = mode
	log.Printf("Switched to %s mode\n", mode)
	return true
}

// Run resumes the remembered session, runs the REPL and releases all
// resources when the user leaves.
func (a *App) Run(ctx context.Context) {
	defer a.Close(context.WithoutCancel(ctx))

	if p, ok, err := a.auth.Restore(ctx); err != nil {
		a.log.Warn(ctx, "remembered session not restored", "error", err)
	} else if ok {
		fmt.Fprintf(a.out, "Welcome back, %s (%s)\n", p.Name, p.Role)
	}

	a.Root(ctx)
}

// Close stops the session manager, flushing pending removals, then closes
// the connection and the cache.
func (a *App) Close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.log.Warn(ctx, "shutdown", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) current() *session.Session {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Current()
}

func (a *App) isLoggedIn() bool {
	return a.current() != nil
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.auth.Ping(ctx)
			cancel()

			if err != nil {
				a.swapMode(func(cur Mode) bool { return cur == ModeOnline }, ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

var _ sessionSource = (*session.Manager)(nil)
