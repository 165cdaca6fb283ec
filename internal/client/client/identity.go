package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
)

// RESTIdentity implements IdentityClient against the /auth/v1 endpoints.
type RESTIdentity struct {
	rest *REST
	now  func() time.Time
}

// NewRESTIdentity returns an IdentityClient over rest.
func NewRESTIdentity(rest *REST) *RESTIdentity {
	return &RESTIdentity{rest: rest, now: time.Now}
}

var _ IdentityClient = (*RESTIdentity)(nil)

func tokenRequest(grant string, body any) request {
	return request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	}
}

func (c *RESTIdentity) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := c.rest.do(ctx, tokenRequest("password", map[string]string{
		"email":    email,
		"password": password,
	}))
	if err != nil {
		return nil, err
	}
	return c.parseSession(resp.Body)
}

func (c *RESTIdentity) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error) {
	resp, err := c.rest.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body: map[string]any{
			"email":    req.Email,
			"password": req.Password,
			"data": map[string]string{
				"name":    req.Name,
				"surname": req.Surname,
				"phone":   req.Phone,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(resp.Body, "access_token").Exists() {
		return nil, nil
	}
	return c.parseSession(resp.Body)
}

func (c *RESTIdentity) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.rest.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	})
	return err
}

func (c *RESTIdentity) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	resp, err := c.rest.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/verify",
		body: map[string]string{
			"type":  "email",
			"email": email,
			"token": code,
		},
	})
	if err != nil {
		return nil, err
	}
	return c.parseSession(resp.Body)
}

func (c *RESTIdentity) ResendVerification(ctx context.Context, email string) error {
	_, err := c.rest.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/resend",
		body: map[string]string{
			"type":  "signup",
			"email": email,
		},
	})
	return err
}

func (c *RESTIdentity) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	resp, err := c.rest.do(ctx, tokenRequest("refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}))
	if err != nil {
		return nil, err
	}
	return c.parseSession(resp.Body)
}

// parseSession reads a token response. expires_at (unix seconds) wins over
// expires_in.
func (c *RESTIdentity) parseSession(body []byte) (*models.Session, error) {
	res := gjson.ParseBytes(body)

	s := &models.Session{
		AccessToken:  res.Get("access_token").String(),
		RefreshToken: res.Get("refresh_token").String(),
		User: models.User{
			ID:    res.Get("user.id").String(),
			Email: res.Get("user.email").String(),
		},
	}
	if s.AccessToken == "" {
		return nil, fmt.Errorf("token response without access token")
	}

	switch {
	case res.Get("expires_at").Exists():
		s.ExpiresAt = time.Unix(res.Get("expires_at").Int(), 0)
	case res.Get("expires_in").Exists():
		s.ExpiresAt = c.now().Add(time.Duration(res.Get("expires_in").Int()) * time.Second)
	}
	return s, nil
}
