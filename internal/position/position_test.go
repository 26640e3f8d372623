package position

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/muesli/gominatim"
	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="44.4268" lon="26.1025"><name>Bucuresti</name></wpt>
  <trk>
    <name>commute</name>
    <trkseg>
      <trkpt lat="46.7600" lon="23.5800"></trkpt>
      <trkpt lat="46.7700" lon="23.5900"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const waypointsGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="45.7489" lon="21.2087"><name>Timisoara</name></wpt>
  <wpt lat="47.1585" lon="27.6014"><name>Iasi</name></wpt>
</gpx>`

const emptyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`

func TestLastPoint(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected locate.Coordinate
	}{
		{"track wins over waypoints", trackGPX, locate.Coordinate{Latitude: 46.77, Longitude: 23.59}},
		{"last waypoint", waypointsGPX, locate.Coordinate{Latitude: 47.1585, Longitude: 27.6014}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LastPoint([]byte(tt.doc))
			require.NoError(t, err)
			assert.InDelta(t, tt.expected.Latitude, got.Latitude, 1e-9)
			assert.InDelta(t, tt.expected.Longitude, got.Longitude, 1e-9)
		})
	}

	_, err := LastPoint([]byte(emptyGPX))
	assert.ErrorIs(t, err, ErrNoFix)
}

func TestGPXFile_CurrentPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.gpx")
	require.NoError(t, os.WriteFile(path, []byte(trackGPX), 0o600))

	got, err := GPXFile{Path: path}.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Valid())
	assert.InDelta(t, 46.77, got.Latitude, 1e-9)

	_, err = GPXFile{Path: filepath.Join(t.TempDir(), "missing.gpx")}.CurrentPosition(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GPXFile{Path: path}.CurrentPosition(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixed(t *testing.T) {
	got, err := Fixed{Latitude: 47.05, Longitude: 21.93}.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, locate.Coordinate{Latitude: 47.05, Longitude: 21.93}, got)
}

func TestNominatimPinner_EmptyAddress(t *testing.T) {
	p := NewNominatimPinner("")
	_, _, err := p.Pin(context.Background(), "  ")
	assert.ErrorIs(t, err, locate.ErrNoPin)
}

func TestResultToCoordinate(t *testing.T) {
	got, err := resultToCoordinate(gominatim.SearchResult{Lat: "46.7712", Lon: "23.6236"})
	require.NoError(t, err)
	assert.Equal(t, locate.Coordinate{Latitude: 46.7712, Longitude: 23.6236}, got)

	_, err = resultToCoordinate(gominatim.SearchResult{Lat: "north", Lon: "23.6"})
	assert.Error(t, err)
}
