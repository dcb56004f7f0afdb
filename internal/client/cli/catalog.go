package cli

import (
	"context"
	"fmt"
)

// Catalog dispatches the catalog subcommands. Listings replace the
// previously shown one.
func (a *App) Catalog(ctx context.Context, args []string) error {
	s := a.current()
	if s == nil || s.Catalog == nil {
		return nil
	}
	catalog := s.Catalog

	sub, rest := subcommand(args, "avail")
	var err error
	switch sub {
	case "all":
		err = catalog.LoadAll(ctx)
	case "avail":
		err = catalog.LoadAvailable(ctx)
	case "place":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: catalog place <placeId>")
			return nil
		}
		err = catalog.LoadByPlace(ctx, rest[0])
	case "get":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: catalog get <id>")
			return nil
		}
		p, err := catalog.Get(ctx, rest[0])
		if err != nil {
			a.report("Product not loaded", err)
			return err
		}
		if p == nil {
			fmt.Fprintln(a.out, "Product not found")
			return nil
		}
		a.printProduct(*p)
		fmt.Fprintf(a.out, "  sold by %s\n  %s\n", p.SellerName, p.Description)
		return nil
	default:
		fmt.Fprintln(a.out, "Usage: catalog [all|avail|place|get]")
		return nil
	}

	if err != nil {
		a.report("Catalog not refreshed, showing the last listing", err)
	}
	list := catalog.List()
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No products")
	}
	for _, p := range list {
		a.printProduct(p)
	}
	return err
}
