package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/session"
	"github.com/dmitrijs2005/turismap/internal/client/validate"
)

func (a *App) seller() (*session.Session, bool) {
	s := a.current()
	if s == nil || s.Products == nil || s.Storefront == nil {
		fmt.Fprintln(a.out, "Available to sellers only")
		return nil, false
	}
	return s, true
}

// uploadImage stores a local file in media storage and returns its key.
// An empty path yields an empty key.
func (a *App) uploadImage(ctx context.Context, s *session.Session, path string) (string, error) {
	if path == "" || s.Media == nil {
		return "", nil
	}
	return s.Media.UploadFile(ctx, path)
}

// Products dispatches the product subcommands.
func (a *App) Products(ctx context.Context, args []string) error {
	s, ok := a.seller()
	if !ok {
		return nil
	}
	products := s.Products

	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		list := products.List()
		if len(list) == 0 {
			fmt.Fprintln(a.out, "No products yet")
		}
		for _, p := range list {
			a.printProduct(p)
		}
		return nil

	case "new":
		p, err := a.askProduct(ctx, s)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		if err := a.validate.Product(p); err != nil {
			a.report("Product not saved", err)
			return err
		}
		if err := a.checkPlaces(p.PlaceIDs); err != nil {
			a.report("Product not saved", err)
			return err
		}
		created, err := products.Create(ctx, p)
		if err != nil {
			a.report("Product not saved", err)
			return err
		}
		fmt.Fprintf(a.out, "Product %s created\n", created.ID)
		return nil

	case "edit":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: product edit <id>")
			return nil
		}
		cur, ok := products.Get(rest[0])
		if !ok {
			fmt.Fprintln(a.out, "Product not found")
			return nil
		}
		patch, err := a.askProductPatch(ctx, s, cur)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		if patch.Empty() {
			fmt.Fprintln(a.out, "Nothing changed")
			return nil
		}
		if err := a.validate.ProductPatch(patch); err != nil {
			a.report("Product not updated", err)
			return err
		}
		if err := a.checkPlaces(patch.PlaceIDs); err != nil {
			a.report("Product not updated", err)
			return err
		}
		if err := products.Update(ctx, cur.ID, patch); err != nil {
			a.report("Product not updated", err)
			return err
		}
		fmt.Fprintln(a.out, "Product updated")
		return nil

	case "avail":
		if len(rest) != 2 {
			fmt.Fprintln(a.out, "Usage: product avail <id> on|off")
			return nil
		}
		var on bool
		switch rest[1] {
		case "on", "yes", "true":
			on = true
		case "off", "no", "false":
		default:
			fmt.Fprintln(a.out, "Usage: product avail <id> on|off")
			return nil
		}
		if err := products.SetAvailable(ctx, rest[0], on); err != nil {
			a.report("Availability not changed", err)
			return err
		}
		fmt.Fprintln(a.out, "Availability updated")
		return nil

	case "rm":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: product rm <id>")
			return nil
		}
		if err := products.Delete(ctx, rest[0]); err != nil {
			a.report("Product not deleted", err)
			return err
		}
		fmt.Fprintln(a.out, "Product deleted")
		return nil

	default:
		fmt.Fprintln(a.out, "Usage: product [list|new|edit|avail|rm]")
		return nil
	}
}

func (a *App) printProduct(p models.Product) {
	state := "hidden"
	if p.Available {
		state = "available"
	}
	fmt.Fprintf(a.out, "%-24s %-28s %10.2f  %-9s %s\n", p.ID, p.Title, p.Price, state, strings.Join(p.PlaceIDs, ","))
}

func (a *App) askProduct(ctx context.Context, s *session.Session) (models.SellerProduct, error) {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return models.SellerProduct{}, err
	}
	price, err := GetFloat(a.reader, "Price", a.out)
	if err != nil {
		return models.SellerProduct{}, fmt.Errorf("price: %w", err)
	}
	desc, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return models.SellerProduct{}, err
	}
	places, err := getSimpleText(a.reader, "Place ids, comma separated", a.out)
	if err != nil {
		return models.SellerProduct{}, err
	}
	available, err := GetYesNo(a.reader, "Available now?", true, a.out)
	if err != nil {
		return models.SellerProduct{}, err
	}
	path, err := getSimpleText(a.reader, "Image file (optional)", a.out)
	if err != nil {
		return models.SellerProduct{}, err
	}
	image, err := a.uploadImage(ctx, s, path)
	if err != nil {
		return models.SellerProduct{}, fmt.Errorf("image upload: %w", err)
	}

	return models.SellerProduct{
		Title:       title,
		Price:       price,
		Description: desc,
		PlaceIDs:    models.ParseList(places),
		Available:   available,
		ImageRef:    image,
	}, nil
}

// askProductPatch prompts for every field; empty answers keep the current value.
func (a *App) askProductPatch(ctx context.Context, s *session.Session, cur models.Product) (models.ProductPatch, error) {
	var patch models.ProductPatch

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", cur.Title), a.out)
	if err != nil {
		return patch, err
	}
	if title != "" && title != cur.Title {
		patch.Title = &title
	}

	price, err := getSimpleText(a.reader, fmt.Sprintf("Price [%.2f]", cur.Price), a.out)
	if err != nil {
		return patch, err
	}
	if price != "" {
		v, err := strconv.ParseFloat(strings.Replace(price, ",", ".", 1), 64)
		if err != nil {
			return patch, fmt.Errorf("price: %w", err)
		}
		if v != cur.Price {
			patch.Price = &v
		}
	}

	desc, err := getSimpleText(a.reader, "Description (empty keeps current)", a.out)
	if err != nil {
		return patch, err
	}
	if desc != "" && desc != cur.Description {
		patch.Description = &desc
	}

	places, err := getSimpleText(a.reader, fmt.Sprintf("Place ids [%s]", strings.Join(cur.PlaceIDs, ",")), a.out)
	if err != nil {
		return patch, err
	}
	if places != "" {
		patch.PlaceIDs = models.ParseList(places)
	}

	path, err := getSimpleText(a.reader, "New image file (optional)", a.out)
	if err != nil {
		return patch, err
	}
	if path != "" {
		image, err := a.uploadImage(ctx, s, path)
		if err != nil {
			return patch, fmt.Errorf("image upload: %w", err)
		}
		patch.ImageRef = &image
	}
	return patch, nil
}

// Store dispatches the storefront subcommands.
func (a *App) Store(ctx context.Context, args []string) error {
	s, ok := a.seller()
	if !ok {
		return nil
	}
	store := s.Storefront

	sub, rest := subcommand(args, "show")
	switch sub {
	case "show":
		p, ok := store.Profile()
		if !ok {
			fmt.Fprintln(a.out, "No storefront yet; create one with 'store save'")
			return nil
		}
		fmt.Fprintf(a.out, "%s by %s\n  %s\n", p.StoreName, p.StoreOwner, p.StoreDescription)
		if p.PixKey != "" {
			fmt.Fprintf(a.out, "  PIX (%s): %s\n", p.PixKeyType, p.PixKey)
		}
		if p.StoreLogo != "" {
			fmt.Fprintf(a.out, "  logo: %s\n", p.StoreLogo)
		}
		return nil

	case "save":
		cur, _ := store.Profile()
		p, err := a.askStore(cur, s.Profile.Name)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		if err := a.validate.Store(p); err != nil {
			a.report("Storefront not saved", err)
			return err
		}
		if err := store.Save(ctx, p); err != nil {
			a.report("Storefront not saved", err)
			return err
		}
		fmt.Fprintln(a.out, "Storefront saved")
		return nil

	case "pix":
		if len(rest) != 2 {
			fmt.Fprintln(a.out, "Usage: store pix <cpf|cnpj|email|phone|random> <key>")
			return nil
		}
		kt := models.PixKeyType(rest[0])
		if !validate.ValidPixKey(rest[1], kt) {
			fmt.Fprintf(a.out, "%q is not a valid %s PIX key\n", rest[1], kt)
			return nil
		}
		if err := store.SetPix(ctx, rest[1], kt); err != nil {
			a.report("PIX key not saved", err)
			return err
		}
		fmt.Fprintln(a.out, "PIX key saved")
		return nil

	case "logo":
		if len(rest) != 1 {
			fmt.Fprintln(a.out, "Usage: store logo <file>")
			return nil
		}
		ref, err := a.uploadImage(ctx, s, rest[0])
		if err != nil {
			a.report("Logo not uploaded", err)
			return err
		}
		if err := store.SetLogo(ctx, ref); err != nil {
			a.report("Logo not saved", err)
			return err
		}
		fmt.Fprintln(a.out, "Logo saved")
		return nil

	default:
		fmt.Fprintln(a.out, "Usage: store [show|save|pix|logo]")
		return nil
	}
}

// askStore prompts for the storefront fields, offering the current values.
func (a *App) askStore(cur models.StoreProfile, owner string) (models.StoreProfile, error) {
	if cur.StoreOwner == "" {
		cur.StoreOwner = owner
	}
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Store name", &cur.StoreName},
		{"Owner", &cur.StoreOwner},
		{"Description", &cur.StoreDescription},
	} {
		s, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s]", f.prompt, *f.dst), a.out)
		if err != nil {
			return cur, err
		}
		if s != "" {
			*f.dst = s
		}
	}
	return cur, nil
}
