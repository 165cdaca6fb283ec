package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// DeleteAccount removes the member's account after two confirmations: a
// yes/no question and retyping the account email.
func (a *App) DeleteAccount(ctx context.Context) error {
	s, ok := a.sessions.Session()
	if !ok {
		return common.ErrNotAuthenticated
	}

	yes, err := getConfirmation(a.reader, "Delete your account and all points? This cannot be undone.", a.out)
	if err != nil {
		return err
	}
	if !yes {
		a.printf("Cancelled.\n")
		return nil
	}

	typed, err := getSimpleText(a.reader, "Type your email to confirm", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(typed), s.User.Email) {
		a.printf("Email does not match. Cancelled.\n")
		return nil
	}

	a.expectSignOut.Store(true)
	if err := a.account.Delete(ctx); err != nil {
		a.expectSignOut.Store(false)
		return err
	}
	a.printf("Your account has been deleted.\n")
	return nil
}
