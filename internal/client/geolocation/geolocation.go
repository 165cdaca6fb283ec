// Package geolocation provides the device position used for store ranking.
//
// Sources fail with common.ErrPermissionDenied when location use is not
// allowed and common.ErrUnavailable when the position cannot be determined.
// WithFallback turns any source into one that never fails.
package geolocation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/geo"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

// Source yields the current device position.
type Source interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

// Static returns a configured device coordinate. It fails with
// ErrPermissionDenied when location use is disabled and ErrUnavailable when
// no coordinate is configured.
type Static struct {
	Enabled    bool
	Coordinate *geo.Coordinate
}

func (s Static) CurrentPosition(context.Context) (geo.Coordinate, error) {
	if !s.Enabled {
		return geo.Coordinate{}, common.ErrPermissionDenied
	}
	if s.Coordinate == nil || !s.Coordinate.Valid() {
		return geo.Coordinate{}, fmt.Errorf("%w: no device location configured", common.ErrUnavailable)
	}
	return *s.Coordinate, nil
}

// HTTP looks the position up from an IP geolocation endpoint returning a
// JSON object with lat/lon (or latitude/longitude) fields.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP returns an HTTP source querying url.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTP{url: url, client: &http.Client{Timeout: timeout}}
}

var (
	latKeys = []string{"lat", "latitude", "location.lat"}
	lngKeys = []string{"lon", "lng", "longitude", "location.lng"}
)

func firstNumber(res gjson.Result, keys []string) (float64, bool) {
	for _, k := range keys {
		if v := res.Get(k); v.Exists() && (v.Type == gjson.Number || v.Type == gjson.String) {
			return v.Float(), true
		}
	}
	return 0, false
}

func (h *HTTP) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return geo.Coordinate{}, common.ErrPermissionDenied
	case resp.StatusCode >= 300:
		return geo.Coordinate{}, fmt.Errorf("%w: status %d", common.ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if !gjson.ValidBytes(body) {
		return geo.Coordinate{}, fmt.Errorf("%w: invalid payload", common.ErrUnavailable)
	}

	res := gjson.ParseBytes(body)
	lat, okLat := firstNumber(res, latKeys)
	lng, okLng := firstNumber(res, lngKeys)
	if !okLat || !okLng {
		return geo.Coordinate{}, fmt.Errorf("%w: payload without coordinates", common.ErrUnavailable)
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("%w: coordinates out of range", common.ErrUnavailable)
	}
	return c, nil
}

// Fallback wraps a source and substitutes a fixed coordinate on failure.
type Fallback struct {
	src      Source
	fallback geo.Coordinate
	log      logging.Logger
}

// WithFallback returns a source that never fails.
func WithFallback(src Source, fallback geo.Coordinate, log logging.Logger) *Fallback {
	if log == nil {
		log = logging.Discard()
	}
	return &Fallback{src: src, fallback: fallback, log: log}
}

// Locate returns the position and whether the fallback was used.
func (f *Fallback) Locate(ctx context.Context) (geo.Coordinate, bool) {
	if f.src == nil {
		return f.fallback, true
	}
	c, err := f.src.CurrentPosition(ctx)
	if err != nil {
		f.log.Info(ctx, "using fallback location", "error", err)
		return f.fallback, true
	}
	return c, false
}

func (f *Fallback) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	c, _ := f.Locate(ctx)
	return c, nil
}
