package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// OTPLength is the number of digits in an email verification code.
const OTPLength = 6

// authError wraps an identity failure in common.ErrAuth keeping the
// backend's message verbatim.
func authError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%w: %s", common.ErrAuth, apiErr.Message)
	}
	return fmt.Errorf("%w: %w", common.ErrAuth, err)
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	return nil
}

// SignIn authenticates with email and password and establishes the session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	s, err := m.identity.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, authError(err)
	}
	fillFromClaims(s)
	m.establish(ctx, s)
	return s.Clone(), nil
}

// ValidateSignUp checks a registration request before it is sent.
func ValidateSignUp(req models.SignUpRequest) error {
	if req.Name == "" || req.Surname == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return fmt.Errorf("%w: all fields are required", common.ErrValidation)
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len([]rune(req.Password)) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}
	return nil
}

// SignUp registers a member. A nil session with a nil error means the
// account must be confirmed with the code sent by email (see VerifyOTP).
func (m *Manager) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error) {
	if err := ValidateSignUp(req); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)

	s, err := m.identity.SignUp(ctx, req)
	if err != nil {
		return nil, authError(err)
	}
	if s == nil {
		m.log.Info(ctx, "sign-up pending verification", "email", req.Email)
		return nil, nil
	}
	fillFromClaims(s)
	m.establish(ctx, s)
	return s.Clone(), nil
}

// VerifyOTP confirms an email address with a one-time code and establishes
// the session.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if len(code) != OTPLength || strings.IndexFunc(code, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return nil, fmt.Errorf("%w: the code must be %d digits", common.ErrValidation, OTPLength)
	}

	s, err := m.identity.VerifyOTP(ctx, strings.TrimSpace(email), code)
	if err != nil {
		return nil, authError(err)
	}
	fillFromClaims(s)
	m.establish(ctx, s)
	return s.Clone(), nil
}

// ResendVerification asks for a new verification code, at most once per
// configured interval.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if !m.resend.Allow() {
		return ErrResendThrottled
	}
	if err := m.identity.ResendVerification(ctx, strings.TrimSpace(email)); err != nil {
		return authError(err)
	}
	return nil
}

// SignOut revokes the session remotely and then clears it locally. A token
// the backend already considers invalid counts as revoked. On any other
// failure the session is kept and an ErrAuth is returned.
func (m *Manager) SignOut(ctx context.Context) error {
	s, ok := m.Session()
	if !ok {
		m.terminate(ctx, "sign_out")
		return nil
	}

	if err := m.identity.SignOut(ctx, s.AccessToken); err != nil && !errors.Is(err, client.ErrUnauthorized) {
		m.log.Warn(ctx, "sign-out failed", "user_id", s.User.ID, "error", err)
		return authError(err)
	}
	m.terminate(ctx, "sign_out")
	return nil
}

// Expire ends the session locally without contacting the backend.
func (m *Manager) Expire(ctx context.Context) {
	m.terminate(ctx, "expired")
}
