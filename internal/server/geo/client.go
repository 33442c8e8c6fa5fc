// Package geo resolves US postal codes to coordinates and a UTC offset
// through the OpenWeatherMap current-weather endpoint.
package geo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/dmitrijs2005/geodash/internal/netx"
	"github.com/dmitrijs2005/geodash/internal/server/models"
)

const (
	DefaultBaseURL     = "https://api.openweathermap.org/data/2.5/weather"
	DefaultCountryCode = "US"
	DefaultTimeout     = 10 * time.Second
)

type Client struct {
	baseURL     string
	apiKey      string
	countryCode string
	httpClient  *http.Client
	logger      logging.Logger
}

type Option func(*Client)

func WithCountryCode(code string) Option {
	return func(c *Client) { c.countryCode = code }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l.With("module", "geo") }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		countryCode: DefaultCountryCode,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type weatherResponse struct {
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Timezone *int `json:"timezone"`
}

// Lookup makes exactly one request. The postal code is passed through as
// is; the provider decides whether it exists.
func (c *Client) Lookup(ctx context.Context, postalCode string) (models.Geo, error) {
	q := url.Values{}
	q.Set("zip", postalCode+","+c.countryCode)
	q.Set("appid", c.apiKey)

	var resp weatherResponse
	err := netx.GetJSON(ctx, c.httpClient, c.baseURL+"?"+q.Encode(), &resp)
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return models.Geo{}, &common.GeoError{Kind: common.GeoNotFound, PostalCode: postalCode, Err: err}
		}
		c.logger.Warn(ctx, "geo lookup failed", "zip", postalCode, "error", err)
		return models.Geo{}, &common.GeoError{Kind: common.GeoUnavailable, PostalCode: postalCode, Err: err}
	}

	if resp.Coord == nil || resp.Coord.Lat == nil || resp.Coord.Lon == nil || resp.Timezone == nil {
		err := errors.New("incomplete location data in response")
		c.logger.Warn(ctx, "geo lookup failed", "zip", postalCode, "error", err)
		return models.Geo{}, &common.GeoError{Kind: common.GeoUnavailable, PostalCode: postalCode, Err: err}
	}

	return models.Geo{
		Latitude:              *resp.Coord.Lat,
		Longitude:             *resp.Coord.Lon,
		TimeZoneOffsetSeconds: *resp.Timezone,
	}, nil
}
