package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/turismap/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	role() models.Role
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	Favorites(ctx context.Context, args []string) error
	Plans(ctx context.Context, args []string) error
	Products(ctx context.Context, args []string) error
	Store(ctx context.Context, args []string) error
	Catalog(ctx context.Context, args []string) error
	Places(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: signup, signin, exit"
	helpTourist   = "Available commands: fav [list|add|rm|undo|toggle|check], plan [list|show|new|edit|rm], places [list|popular|suggested|show], catalog [all|avail|place|get], sync, signout, exit"
	helpSeller    = "Available commands: product [list|new|edit|avail|rm], store [show|save|pix|logo], places [list|popular|suggested|show], catalog [all|avail|place|get], sync, signout, exit"
)

// runREPL starts a simple read-eval-print loop for the Turismap CLI.
//
// It reads a line from reader, parses the first token as the command and
// passes the remaining tokens to the handler. Unknown commands are reported
// back to the user. The loop exits on EOF or when the user types "exit" or
// "quit".
//
// Prompt & Commands
//
//	Signed out:
//	  - signup         create an account
//	  - signin         authenticate as tourist or seller
//
//	Tourist:
//	  - fav ...        favorites; removals can be undone for a few seconds
//	  - plan ...       itineraries
//
//	Seller:
//	  - product ...    own products
//	  - store ...      storefront and PIX details
//
//	Everybody signed in:
//	  - places ...     browse points of interest
//	  - catalog ...    browse products
//	  - sync           reload everything from the server
//	  - signout
//
// Handlers print their own errors; the loop ignores the returned values.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("tm %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn(helpSignedOut)
			case "signup":
				_ = a.SignUp(ctx)
			case "signin", "login":
				_ = a.SignIn(ctx)
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Sign in first (type 'help' for commands)")
			}
			continue
		}

		switch cmd {
		case "help":
			if a.role() == models.RoleSeller {
				printlnFn(helpSeller)
			} else {
				printlnFn(helpTourist)
			}
		case "fav":
			_ = a.Favorites(ctx, args)
		case "plan":
			_ = a.Plans(ctx, args)
		case "product":
			_ = a.Products(ctx, args)
		case "store":
			_ = a.Store(ctx, args)
		case "catalog":
			_ = a.Catalog(ctx, args)
		case "places":
			_ = a.Places(ctx, args)
		case "sync":
			_ = a.Sync(ctx)
		case "signout", "logout":
			_ = a.SignOut(ctx)
		case "signin", "signup":
			printlnFn("Already signed in; signout first")
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
