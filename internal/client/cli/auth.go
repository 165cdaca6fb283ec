package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/session"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// Interactive input helpers, swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

var errAlreadySignedIn = errors.New("already signed in, sign out first")

// SignIn prompts for credentials and signs the member in. The password
// byte slice is wiped before returning.
func (a *App) SignIn(ctx context.Context) error {
	if a.isLoggedIn() {
		return errAlreadySignedIn
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.sessions.SignIn(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.printf("Signed in as %s\n", s.User.Email)
	return nil
}

// SignUp collects the registration form. When the backend requires email
// confirmation the address is remembered for verify and resend.
func (a *App) SignUp(ctx context.Context) error {
	if a.isLoggedIn() {
		return errAlreadySignedIn
	}

	var req models.SignUpRequest
	var err error
	if req.Name, err = getSimpleText(a.reader, "Enter first name", a.out); err != nil {
		return err
	}
	if req.Surname, err = getSimpleText(a.reader, "Enter surname", a.out); err != nil {
		return err
	}
	if req.Phone, err = getSimpleText(a.reader, "Enter phone number", a.out); err != nil {
		return err
	}
	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if err := session.ValidateSignUp(req); err != nil {
		return err
	}

	s, err := a.sessions.SignUp(ctx, req)
	if err != nil {
		return err
	}
	if s == nil {
		a.pendingEmail = req.Email
		a.printf("We sent a %d-digit code to %s. Run 'verify' to finish.\n", session.OTPLength, req.Email)
		return nil
	}
	a.printf("Account created. Signed in as %s\n", s.User.Email)
	return nil
}

// Verify completes a pending sign-up with the emailed code.
func (a *App) Verify(ctx context.Context) error {
	email, err := getOptionalText(a.reader, "Enter email", a.pendingEmail, a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	s, err := a.sessions.VerifyOTP(ctx, email, code)
	if err != nil {
		return err
	}
	a.pendingEmail = ""
	a.printf("Email verified. Signed in as %s\n", s.User.Email)
	return nil
}

// Resend asks for another verification code.
func (a *App) Resend(ctx context.Context) error {
	email, err := getOptionalText(a.reader, "Enter email", a.pendingEmail, a.out)
	if err != nil {
		return err
	}
	if err := a.sessions.ResendVerification(ctx, email); err != nil {
		return err
	}
	a.pendingEmail = email
	a.printf("A new code was sent to %s\n", email)
	return nil
}

// SignOut ends the session. On failure the member stays signed in.
func (a *App) SignOut(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}
	a.expectSignOut.Store(true)
	if err := a.sessions.SignOut(ctx); err != nil {
		a.expectSignOut.Store(false)
		return err
	}
	a.printf("Signed out.\n")
	return nil
}
