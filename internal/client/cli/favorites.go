package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/syncer"
)

func (a *App) favorites() (*syncer.Favorites, bool) {
	s := a.current()
	if s == nil || s.Favorites == nil {
		fmt.Fprintln(a.out, "Favorites are available to tourists only")
		return nil, false
	}
	return s.Favorites, true
}

// Favorites dispatches the fav subcommands.
func (a *App) Favorites(ctx context.Context, args []string) error {
	favs, ok := a.favorites()
	if !ok {
		return nil
	}

	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		a.listFavorites(favs)
		return nil

	case "add":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: fav add <placeId>")
			return nil
		}
		e, err := a.favoriteFor(ctx, rest[0])
		if err != nil {
			a.report("Favorite not saved", err)
			return err
		}
		if err := favs.Add(ctx, e); err != nil {
			a.report("Favorite not saved", err)
			return err
		}
		fmt.Fprintf(a.out, "Added %s to favorites\n", e.Title)
		return nil

	case "rm":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: fav rm <placeId>")
			return nil
		}
		if !favs.Remove(ctx, rest[0]) {
			fmt.Fprintf(a.out, "%s is not a favorite\n", rest[0])
			return nil
		}
		fmt.Fprintf(a.out, "Removed %s. Type 'fav undo' within %s to restore it.\n", rest[0], undoLeft(favs, rest[0]))
		return nil

	case "undo":
		var restored bool
		if len(rest) == 1 {
			restored = favs.UndoRemoval(ctx, rest[0])
		} else {
			restored = favs.Undo(ctx)
		}
		if !restored {
			fmt.Fprintln(a.out, "Nothing to undo")
			return nil
		}
		fmt.Fprintln(a.out, "Restored")
		return nil

	case "toggle":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: fav toggle <placeId>")
			return nil
		}
		e := models.FavoriteEntry{PlaceID: rest[0], Title: rest[0]}
		if places := a.places(); places != nil {
			if p, ok := places.Get(rest[0]); ok {
				e = p.Favorite()
			}
		}
		if favs.Toggle(ctx, e) {
			fmt.Fprintf(a.out, "%s marked on this device\n", rest[0])
		} else {
			fmt.Fprintf(a.out, "%s unmarked on this device\n", rest[0])
		}
		return nil

	case "check":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: fav check <placeId>")
			return nil
		}
		fmt.Fprintln(a.out, favs.IsFavorite(rest[0]))
		return nil

	default:
		fmt.Fprintln(a.out, "Usage: fav [list|add|rm|undo|toggle|check]")
		return nil
	}
}

// favoriteFor builds the entry for placeID from the places catalog. Only
// when the catalog cannot be reached is the user asked for the details.
func (a *App) favoriteFor(ctx context.Context, placeID string) (models.FavoriteEntry, error) {
	places := a.places()
	if places == nil {
		return a.askFavorite(placeID)
	}

	p, err := places.Fetch(ctx, placeID)
	switch {
	case p != nil:
		return p.Favorite(), nil
	case err == nil:
		return models.FavoriteEntry{}, fmt.Errorf("%w: %s", syncer.ErrUnknownPlace, placeID)
	}
	a.log.Warn(ctx, "place lookup failed, asking for details", "place", placeID, "error", err)
	return a.askFavorite(placeID)
}

func (a *App) askFavorite(placeID string) (models.FavoriteEntry, error) {
	title, err := getSimpleText(a.reader, "Place name", a.out)
	if err != nil {
		return models.FavoriteEntry{}, err
	}
	if title == "" {
		title = placeID
	}

	rating, err := GetFloat(a.reader, "Rating (0-5)", a.out)
	if err != nil {
		return models.FavoriteEntry{}, fmt.Errorf("rating: %w", err)
	}

	image, err := getSimpleText(a.reader, "Local image path (optional)", a.out)
	if err != nil {
		return models.FavoriteEntry{}, err
	}

	return models.FavoriteEntry{PlaceID: placeID, Title: title, Rating: rating, ImageRef: image}, nil
}

func (a *App) listFavorites(favs *syncer.Favorites) {
	entries := favs.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No favorites yet")
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-24s %-32s %.1f\n", e.PlaceID, e.Title, e.Rating)
	}
	for _, p := range favs.Pending() {
		fmt.Fprintf(a.out, "%-24s %-32s removing, undo within %s\n", p.Entry.PlaceID, p.Entry.Title, time.Until(p.Expiry).Round(time.Second))
	}
}

func undoLeft(favs *syncer.Favorites, placeID string) time.Duration {
	for _, p := range favs.Pending() {
		if p.Entry.PlaceID == placeID {
			if d := time.Until(p.Expiry).Round(time.Second); d > 0 {
				return d
			}
		}
	}
	return syncer.DefaultGraceWindow
}

// subcommand splits args into the subcommand and its operands.
func subcommand(args []string, def string) (string, []string) {
	if len(args) == 0 {
		return def, nil
	}
	return args[0], args[1:]
}
