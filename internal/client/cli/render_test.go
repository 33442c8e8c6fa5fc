package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/dmitrijs2005/geodash/internal/client/models"
	"github.com/dmitrijs2005/geodash/internal/client/view"
	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

var sampleUsers = []models.User{
	{
		ID: "3f2a9c1e-8b7d-4e21-9a55-0c1d2e3f4a5b", Name: "Jane Q Public", ZipCode: "37643",
		Geo:       &models.Geo{Latitude: 36.3487, Longitude: -82.2107, TimeZoneOffset: -14400},
		UpdatedAt: time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC),
	},
	{
		ID: "a1b2c3d4-0000-4000-8000-000000000001", Name: "prince", ZipCode: "90210-1234",
		UpdatedAt: time.Date(2024, 5, 31, 9, 5, 0, 0, time.UTC),
	},
	{
		ID: "b9e8d7c6-1111-4111-8111-000000000002", Name: "Ana Lúcia", ZipCode: "10001",
		Geo:       &models.Geo{Latitude: 40.7506, Longitude: -73.9972, TimeZoneOffset: 19800},
		UpdatedAt: time.Date(2024, 5, 30, 23, 59, 0, 0, time.UTC),
	},
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"":               "?",
		"   ":            "?",
		"jane":           "J",
		"jane doe":       "JD",
		"Jane Q Public":  "JP",
		"  ana   lúcia ": "AL",
		"élodie":         "É",
	}
	for in, want := range tests {
		assert.Equal(t, want, Initials(in), "name %q", in)
	}
}

func TestFormatTimeZone(t *testing.T) {
	tests := []struct {
		offset int
		want   string
	}{
		{0, "UTC+0"},
		{3600, "UTC+1"},
		{19800, "UTC+5"},
		{-14400, "UTC-4"},
		{-12600, "UTC-3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeZone(&models.Geo{TimeZoneOffset: tt.offset}))
	}
	assert.Equal(t, "N/A", FormatTimeZone(nil))
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "36.3487°, -82.2107°", FormatLocation(&models.Geo{Latitude: 36.34871, Longitude: -82.21069}))
	assert.Equal(t, "N/A", FormatLocation(nil))
}

func TestRenderTable_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, sampleUsers, sampleUsers[1].ID))
	newGoldie(t).Assert(t, "table", buf.Bytes())
}

func TestRenderSnapshot_Golden(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderSnapshot(&buf, view.Snapshot{Loading: true}))
		newGoldie(t).Assert(t, "snapshot_empty", buf.Bytes())
	})

	t.Run("with error", func(t *testing.T) {
		var buf bytes.Buffer
		s := view.Snapshot{
			Records:     sampleUsers[:1],
			LastError:   &common.GeoError{Kind: common.GeoNotFound, PostalCode: "00000"},
			LastRefresh: time.Date(2024, 6, 1, 14, 31, 5, 0, time.UTC),
		}
		require.NoError(t, RenderSnapshot(&buf, s))
		newGoldie(t).Assert(t, "snapshot_error", buf.Bytes())
	})
}
