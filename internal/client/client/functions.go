package client

import (
	"context"
	"net/http"
	"net/url"
)

// RESTFunctions implements FunctionsClient against /functions/v1.
type RESTFunctions struct {
	rest   *REST
	tokens TokenSource
}

// NewRESTFunctions returns a FunctionsClient authenticated by tokens.
func NewRESTFunctions(rest *REST, tokens TokenSource) *RESTFunctions {
	return &RESTFunctions{rest: rest, tokens: tokens}
}

var _ FunctionsClient = (*RESTFunctions)(nil)

// Invoke calls the named function and returns its raw response body.
func (c *RESTFunctions) Invoke(ctx context.Context, name string, body any) ([]byte, error) {
	if body == nil {
		body = map[string]any{}
	}
	resp, err := c.rest.authed(ctx, c.tokens, request{
		method: http.MethodPost,
		path:   "/functions/v1/" + url.PathEscape(name),
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
