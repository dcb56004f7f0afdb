package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/syncer"
)

func (a *App) places() *syncer.Places {
	if s := a.current(); s != nil {
		return s.Places
	}
	return nil
}

// Places dispatches the places subcommands. The catalog is fetched on
// first use and by sync.
func (a *App) Places(ctx context.Context, args []string) error {
	places := a.places()
	if places == nil {
		return nil
	}

	var err error
	if places.Len() == 0 {
		if err = places.Load(ctx); err != nil {
			a.report("Places not loaded", err)
		}
	}

	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		if len(rest) > 1 {
			fmt.Fprintln(a.out, "Usage: places list [cultural|nature|adventure|craft]")
			return nil
		}
		list := places.List()
		if len(rest) == 1 {
			list = places.ByCategory(models.PlaceCategory(rest[0]))
		}
		a.printPlaces(list)

	case models.SectionPopular, models.SectionSuggested:
		a.printPlaces(places.Section(sub))

	case "show":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: places show <id>")
			return nil
		}
		p, ferr := places.Fetch(ctx, rest[0])
		if ferr != nil {
			a.report("Place not loaded", ferr)
			return ferr
		}
		if p == nil {
			fmt.Fprintln(a.out, "Place not found")
			return nil
		}
		a.printPlace(*p)

	default:
		fmt.Fprintln(a.out, "Usage: places [list [category]|popular|suggested|show <id>]")
		return nil
	}
	return err
}

func (a *App) printPlaces(list []models.Place) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No places")
	}
	for _, p := range list {
		fmt.Fprintf(a.out, "%-8s %-28s %-10s %.1f  %s\n", p.ID, p.Title, p.Category, p.Rating, p.Location)
	}
}

func (a *App) printPlace(p models.Place) {
	fmt.Fprintf(a.out, "%s (%s)\n  %s, rated %.1f\n  %s\n", p.Title, p.Category, p.Location, p.Rating, p.Description)
	if p.SellerName != "" {
		fmt.Fprintf(a.out, "  featured seller: %s\n", p.SellerName)
	}
}

// checkPlaces rejects place ids the loaded catalog does not know.
func (a *App) checkPlaces(ids []string) error {
	if places := a.places(); places != nil {
		return places.Check(ids)
	}
	return nil
}
