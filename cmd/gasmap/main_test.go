package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrajina/gpxgo/gpx"
)

const stationsPayload = `{
	"Stations": [
		{"id": 1, "addr": {"location": {"Lat": 46.771, "Lon": 23.591}}, "network": {"name": "Petrom", "logo": {"logouri": "p.png"}}},
		{"id": 2, "addr": {"location": {"Lat": 46.775, "Lon": 23.585}}, "network": {"name": "OMV", "logo": {"logouri": "o.png"}}}
	],
	"Products": [{"stationid": 1, "price": 7.29}]
}`

func priceMonitor(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Gas/GetUATByName":
			if r.URL.Query().Get("uatname") == "Atlantis" {
				w.Write([]byte(`{"Items": []}`))
				return
			}
			w.Write([]byte(`{"Items": [{"id": 54975, "name": "Cluj-Napoca"}]}`))
		case "/Gas/GetGasItemsByLatLon", "/Gas/GetGasItemsByUat":
			w.Write([]byte(stationsPayload))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"gasmap"}, args...))
	return out.String(), err
}

func TestProductsCommand(t *testing.T) {
	out, err := run(t, "products")
	require.NoError(t, err)
	for _, p := range locate.Products {
		assert.Contains(t, out, p.ID+"\t"+p.Name)
	}
}

func TestSearchCommand_Pin(t *testing.T) {
	srv := priceMonitor(t)
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := run(t, "--base-url", srv.URL, "--db", db, "--lang", "en",
		"search", "--strategy", "pin", "--lat", "46.77", "--lon", "23.59", "--radius", "2", "--format", "json")
	require.NoError(t, err)

	var res locate.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, locate.StrategyPin, res.Strategy)
	require.Len(t, res.Markers, 2)
	assert.Equal(t, "Petrom", res.Markers[0].Title)
	assert.False(t, res.Markers[1].Price.Known)

	out, err = run(t, "--db", db, "history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"strategy": "pin"`)

	out, err = run(t, "--db", db, "--lang", "en", "popular")
	require.NoError(t, err)
	assert.Contains(t, out, "Popular areas")
	assert.Contains(t, out, "1. 46.7700,23.5900")
}

func TestSearchCommand_TownText(t *testing.T) {
	srv := priceMonitor(t)
	out, err := run(t, "--base-url", srv.URL, "--db", "", "--lang", "en",
		"search", "-s", "town", "--town", "Cluj", "-p", "benzina standard")
	require.NoError(t, err)
	assert.Contains(t, out, "Town: Cluj-Napoca (Benzina Standard, 1 km)")
	assert.Contains(t, out, "Center: 46.771000,23.591000")
	assert.Contains(t, out, "N/A")
}

func TestSearchCommand_GPXOutput(t *testing.T) {
	srv := priceMonitor(t)
	path := filepath.Join(t.TempDir(), "result.gpx")
	_, err := run(t, "--base-url", srv.URL, "--db", "",
		"search", "-s", "current", "--allow-location", "--lat", "46.77", "--lon", "23.59", "-f", "gpx", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := gpx.ParseBytes(data)
	require.NoError(t, err)
	assert.Len(t, doc.Waypoints, 3)
	assert.Len(t, doc.Tracks, 1)
}

func TestSearchCommand_Errors(t *testing.T) {
	srv := priceMonitor(t)
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"no strategy", []string{"search"}, "Choose a location option."},
		{"permission denied", []string{"search", "-s", "current", "--lat", "46.77", "--lon", "23.59"}, "Location permission denied."},
		{"no fix", []string{"search", "-s", "current", "--allow-location"}, "Location information is unavailable."},
		{"town not found", []string{"search", "-s", "town", "--town", "Atlantis"}, "Town not found."},
		{"empty town", []string{"search", "-s", "town"}, "Enter a town name."},
		{"no pin", []string{"search", "-s", "pin"}, "Drop the pin on the map."},
		{"bad radius", []string{"search", "-s", "pin", "--lat", "46.77", "--lon", "23.59", "-r", "7"}, "Invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--base-url", srv.URL, "--db", "", "--lang", "en"}, tt.args...)
			_, err := run(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestSearchCommand_UnknownFormat(t *testing.T) {
	_, err := run(t, "--db", "", "search", "-s", "pin", "-f", "kml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "kml"))
}

func TestHistoryCommand_Prune(t *testing.T) {
	srv := priceMonitor(t)
	db := filepath.Join(t.TempDir(), "history.db")
	_, err := run(t, "--base-url", srv.URL, "--db", db, "search", "-s", "pin", "--lat", "46.77", "--lon", "23.59")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "history", "--prune-days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 searches")

	_, err = run(t, "--db", "", "history")
	assert.Error(t, err)
}
