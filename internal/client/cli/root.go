package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/turismap/internal/client/models"
)

func (a *App) getStatus() string {
	s := ""
	if cur := a.current(); cur != nil {
		s = cur.Profile.Email + " "
	}
	if mode := a.Mode(); mode != "" {
		s = s + string(mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) role() models.Role {
	if cur := a.current(); cur != nil {
		return cur.Profile.Role
	}
	return ""
}

// Root runs the REPL until the user exits. The online status watcher runs
// alongside it and stops with ctx.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to Turismap CLI (type 'help' for commands)")

	if !a.isLoggedIn() {
		_ = a.SignIn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Sync reloads every synchronizer of the session from the server.
func (a *App) Sync(ctx context.Context) error {
	s := a.current()
	if s == nil {
		return nil
	}
	if err := s.Refresh(ctx); err != nil {
		a.report("Sync incomplete", err)
		return err
	}
	fmt.Fprintln(a.out, "Synchronized")
	return nil
}
