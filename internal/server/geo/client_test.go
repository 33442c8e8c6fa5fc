package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Success(t *testing.T) {
	var gotZip, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotZip = r.URL.Query().Get("zip")
		gotKey = r.URL.Query().Get("appid")
		_, _ = w.Write([]byte(`{"coord":{"lon":-118.4065,"lat":34.09},"timezone":-28800,"name":"Beverly Hills"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "k-123")
	got, err := c.Lookup(context.Background(), "90210")
	require.NoError(t, err)

	assert.Equal(t, models.Geo{Latitude: 34.09, Longitude: -118.4065, TimeZoneOffsetSeconds: -28800}, got)
	assert.Equal(t, "90210,US", gotZip)
	assert.Equal(t, "k-123", gotKey)
}

func TestLookup_CountryCodeOption(t *testing.T) {
	var gotZip string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotZip = r.URL.Query().Get("zip")
		_, _ = w.Write([]byte(`{"coord":{"lon":1,"lat":2},"timezone":0}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "k", WithCountryCode("PR")).Lookup(context.Background(), "00901")
	require.NoError(t, err)
	assert.Equal(t, "00901,PR", gotZip)
}

func TestLookup_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "k").Lookup(context.Background(), "00000")

	var ge *common.GeoError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, common.GeoNotFound, ge.Kind)
	assert.Equal(t, "invalid zip code: 00000", err.Error())
	assert.ErrorIs(t, err, common.ErrGeoNotFound)
}

func TestLookup_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "rate limited", handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{name: "server error", handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{name: "bad key", handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{name: "malformed body", handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) }},
		{name: "missing timezone", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"coord":{"lon":-118.4,"lat":34.1}}`))
		}},
		{name: "missing coord", handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"timezone":0}`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := NewClient(ts.URL, "k").Lookup(context.Background(), "90210")

			var ge *common.GeoError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, common.GeoUnavailable, ge.Kind)
			assert.Equal(t, "failed to fetch location data, please retry", err.Error())
			assert.Error(t, errors.Unwrap(err), "cause kept for logs")
		})
	}
}

func TestLookup_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := NewClient(ts.URL, "k", WithTimeout(50*time.Millisecond)).Lookup(context.Background(), "90210")
	assert.ErrorIs(t, err, common.ErrGeoUnavailable)
}

func TestLookup_TransportErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewClient(url, "k").Lookup(context.Background(), "90210")
	assert.ErrorIs(t, err, common.ErrGeoUnavailable)
}

func TestLookup_NoCaching(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"coord":{"lon":1,"lat":2},"timezone":3600}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "k", WithHTTPClient(ts.Client()))
	for i := 0; i < 3; i++ {
		_, err := c.Lookup(context.Background(), "37643")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}
