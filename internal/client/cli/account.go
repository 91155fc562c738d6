package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const msgLoginRequired = "Please log in first (type 'login')."

// password prompts for a password and returns it as a string. The
// terminal buffer is wiped.
func (a *App) password(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// requireSession waits for the stored session to load and reports whether
// a user is signed in, telling the user to log in otherwise.
func (a *App) requireSession(ctx context.Context) bool {
	wctx, cancel := context.WithTimeout(ctx, hydrationWait)
	defer cancel()
	if err := a.session.WaitHydrated(wctx); err != nil {
		a.logger.Warn(ctx, "session not loaded yet", "error", err)
	}
	if !a.session.IsAuthenticated() {
		fmt.Fprintln(a.out, msgLoginRequired)
		return false
	}
	return true
}

// sessionErr turns a lost session into the login hint and passes other
// errors through.
func (a *App) sessionErr(err error) error {
	if services.IsNotAuthenticated(err) {
		fmt.Fprintln(a.out, msgLoginRequired)
		return nil
	}
	return err
}

// Register prompts for username, email and password and creates the
// account. The new account is signed in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter password")
	if err != nil {
		return err
	}

	p, err := a.session.Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", p.Username)
	return nil
}

// Login prompts for an email or username and a password. A failed login
// keeps whatever session was active before.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter password")
	if err != nil {
		return err
	}

	p, err := a.session.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", p.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Account prints the profile, loading it first when only the token was
// restored.
func (a *App) Account(ctx context.Context) error {
	if !a.requireSession(ctx) {
		return nil
	}
	u, err := a.session.Profile(ctx)
	if err != nil {
		return a.sessionErr(err)
	}
	fmt.Fprintln(a.out, a.renderer.Profile(u))
	return nil
}

// Update walks through the editable profile fields and sends the ones
// the user changed.
func (a *App) Update(ctx context.Context) error {
	if !a.requireSession(ctx) {
		return nil
	}

	var patch models.ProfilePatch
	fields := []struct {
		prompt string
		dst    **string
	}{
		{"Username", &patch.Username},
		{"Email", &patch.Email},
		{"Location", &patch.Location},
		{"Phone number", &patch.PhoneNumber},
	}
	for _, f := range fields {
		v, ok, err := GetOptionalText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		if ok {
			*f.dst = common.Ptr(v)
		}
	}
	if patch.Empty() {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	p, err := a.session.UpdateProfile(ctx, patch)
	if err != nil {
		return a.sessionErr(err)
	}
	fmt.Fprintln(a.out, "Profile updated")
	fmt.Fprintln(a.out, a.renderer.Profile(p))
	return nil
}

// Avatar uploads an image file and makes it the profile picture. The
// path comes from the arguments or a prompt.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if !a.requireSession(ctx) {
		return nil
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		var err error
		if path, err = getSimpleText(a.reader, "Enter image path", a.out); err != nil {
			return err
		}
	}
	if path == "" {
		return fmt.Errorf("image path is required")
	}

	p, err := a.session.UploadAvatar(ctx, path)
	if err != nil {
		return a.sessionErr(err)
	}
	fmt.Fprintf(a.out, "Avatar updated: %s\n", a.api.AbsoluteURL(p.AvatarURL))
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter account email", a.out)
	if err != nil {
		return err
	}
	if err := a.session.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "If the address is registered, a reset code is on its way. Use 'reset' to set a new password.")
	return nil
}

// Reset sets a new password with the emailed code and signs in.
func (a *App) Reset(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter reset code", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter new password")
	if err != nil {
		return err
	}
	confirmation, err := a.password("Confirm new password")
	if err != nil {
		return err
	}

	p, err := a.session.ResetPassword(ctx, code, password, confirmation)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password changed. Logged in as %s\n", p.Username)
	return nil
}
