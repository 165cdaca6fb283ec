package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

// RESTConfig configures the shared REST transport.
type RESTConfig struct {
	BaseURL string
	APIKey  string
	// HTTPClient overrides the default client; Timeout is ignored then.
	HTTPClient *http.Client
	Timeout    time.Duration
	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64
	Logger            logging.Logger
}

// REST is the HTTP transport shared by the identity, data and functions
// clients. It adds the API key, paces requests and maps failures to the
// package's sentinel errors.
type REST struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     logging.Logger
}

// NewREST validates cfg and builds the transport.
func NewREST(cfg RESTConfig) (*REST, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &REST{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    hc,
		limiter: limiter,
		log:     log,
	}, nil
}

// request describes one backend call.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// bearer replaces the API key in the Authorization header.
	bearer string
}

// response is a fully read backend response.
type response struct {
	Status int
	Body   []byte
	Header http.Header
}

// JSON decodes the body into v.
func (r *response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// count reads the total from a PostgREST Content-Range header ("0-4/12").
func (r *response) count() (int, error) {
	cr := r.Header.Get("Content-Range")
	_, total, ok := strings.Cut(cr, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("missing count in content-range %q", cr)
	}
	return strconv.Atoi(total)
}

func (c *REST) do(ctx context.Context, req request) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	bearer := req.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn(ctx, "backend request failed", "method", req.method, "path", req.path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	c.log.Debug(ctx, "backend request", "method", req.method, "path", req.path,
		"status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return &response{Status: resp.StatusCode, Body: data, Header: resp.Header}, nil
}

// authed runs req with the token from ts. A 401 triggers one forced token
// refresh and retry when ts supports it.
func (c *REST) authed(ctx context.Context, ts TokenSource, req request) (*response, error) {
	if ts != nil {
		token, err := ts.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		req.bearer = token
	}

	resp, err := c.do(ctx, req)
	var apiErr *APIError
	if err == nil || !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return resp, err
	}

	refresher, ok := ts.(TokenRefresher)
	if !ok || req.bearer == "" {
		return nil, err
	}
	token, rerr := refresher.ForceRefresh(ctx)
	if rerr != nil {
		return nil, err
	}
	req.bearer = token
	return c.do(ctx, req)
}

// query builds PostgREST table requests.
type query struct {
	table  string
	params url.Values
	orders []string
	count  bool
}

func from(table string) *query {
	return &query{table: table, params: url.Values{}}
}

func (q *query) Select(columns string) *query {
	q.params.Set("select", columns)
	return q
}

func (q *query) Eq(column string, value any) *query {
	q.params.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

func (q *query) Order(column string, ascending bool) *query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

func (q *query) Limit(n int) *query {
	if n > 0 {
		q.params.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Count asks for an exact row count in Content-Range.
func (q *query) Count() *query {
	q.count = true
	return q
}

func (q *query) path() string {
	return "/rest/v1/" + url.PathEscape(q.table)
}

func (q *query) values() url.Values {
	v := url.Values{}
	for k, vals := range q.params {
		v[k] = append([]string(nil), vals...)
	}
	if len(q.orders) > 0 {
		v.Set("order", strings.Join(q.orders, ","))
	}
	return v
}

func (q *query) get() request {
	req := request{method: http.MethodGet, path: q.path(), query: q.values()}
	if q.count {
		req.headers = map[string]string{"Prefer": "count=exact"}
	}
	return req
}

// patch updates the rows matched by the query's filters.
func (q *query) patch(body any) request {
	v := q.values()
	v.Del("select")
	return request{
		method:  http.MethodPatch,
		path:    q.path(),
		query:   v,
		body:    body,
		headers: map[string]string{"Prefer": "return=minimal"},
	}
}

func rpc(fn string, params any) request {
	return request{method: http.MethodPost, path: "/rest/v1/rpc/" + url.PathEscape(fn), body: params}
}
