package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/services"
	"github.com/dmitrijs2005/turismap/internal/client/validate"
	"github.com/dmitrijs2005/turismap/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) askRole() (models.Role, error) {
	s, err := getSimpleText(a.reader, "Account type (tourist/seller)", a.out)
	if err != nil {
		return "", err
	}
	return models.ParseRole(s)
}

// SignUp prompts for the account details and registers a new account. The
// new user is signed in right away.
func (a *App) SignUp(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	role, err := a.askRole()
	if err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.auth.SignUp(ctx, validate.SignUp{
		Email:    email,
		Password: string(password),
		Name:     name,
		Role:     role,
	})
	if err != nil {
		a.report("Sign up failed", err)
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", p.Name)
	a.setMode(ModeOnline)
	return nil
}

// SignIn prompts for credentials and the account type to sign in as.
//
// An account registered under the other role is signed out again and the
// user is told which role to pick. When the server is unreachable the app
// switches to ModeDisabled; the remembered session, if any, stays usable.
func (a *App) SignIn(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	role, err := a.askRole()
	if err != nil {
		fmt.Fprintln(a.out, err)
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.auth.SignIn(ctx, validate.SignIn{Email: email, Password: string(password), Role: role})
	if err != nil {
		var mismatch *services.RoleMismatchError
		if errors.As(err, &mismatch) {
			fmt.Fprintf(a.out, "This email is registered as a %s. Sign in as %s instead.\n", mismatch.Registered, mismatch.Registered)
			return err
		}
		if errors.Is(err, common.ErrRemoteUnavailable) {
			a.setMode(ModeDisabled)
		}
		a.report("Sign in failed", err)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", p.Name, p.Role)
	a.setMode(ModeOnline)
	return nil
}

// SignOut ends the session. Pending favorite removals are committed first.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		a.report("Sign out", err)
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// report prints err in user terms.
func (a *App) report(prefix string, err error) {
	var verrs validate.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fmt.Fprintf(a.out, "%s:\n", prefix)
		for _, v := range verrs {
			fmt.Fprintf(a.out, "  - %s\n", v.Message)
		}
	case errors.Is(err, common.ErrRemoteUnavailable):
		fmt.Fprintf(a.out, "%s: server unavailable, try again later\n", prefix)
	case errors.Is(err, common.ErrUnauthorized):
		fmt.Fprintf(a.out, "%s: not authorized\n", prefix)
	case errors.Is(err, common.ErrNotFound):
		fmt.Fprintf(a.out, "%s: not found\n", prefix)
	default:
		fmt.Fprintf(a.out, "%s: %v\n", prefix, err)
	}
}
