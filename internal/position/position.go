// Package position provides device position sources and the pin placement
// step that precede a station search.
package position

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/gominatim"
	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/tkrajina/gpxgo/gpx"
)

const DefaultNominatimServer = "https://nominatim.openstreetmap.org/"

var ErrNoFix = errors.New("no position fix")

// Fixed is a position reported by someone else, e.g. a browser client.
type Fixed locate.Coordinate

func (f Fixed) CurrentPosition(context.Context) (locate.Coordinate, error) {
	return locate.Coordinate(f), nil
}

// GPXFile reads the device position from a GPX file kept up to date by a
// GPS logger. The latest track point is the current position; files without
// tracks fall back to the last route point and then the last waypoint.
type GPXFile struct {
	Path string
}

func (g GPXFile) CurrentPosition(ctx context.Context) (locate.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return locate.Coordinate{}, err
	}

	data, err := os.ReadFile(g.Path)
	if err != nil {
		return locate.Coordinate{}, fmt.Errorf("error reading GPX file: %w", err)
	}

	return LastPoint(data)
}

// LastPoint returns the most recent point of a GPX document.
func LastPoint(data []byte) (locate.Coordinate, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return locate.Coordinate{}, fmt.Errorf("error parsing GPX: %w", err)
	}

	for i := len(doc.Tracks) - 1; i >= 0; i-- {
		segments := doc.Tracks[i].Segments
		for j := len(segments) - 1; j >= 0; j-- {
			if n := len(segments[j].Points); n > 0 {
				return fromPoint(segments[j].Points[n-1]), nil
			}
		}
	}

	for i := len(doc.Routes) - 1; i >= 0; i-- {
		if n := len(doc.Routes[i].Points); n > 0 {
			return fromPoint(doc.Routes[i].Points[n-1]), nil
		}
	}

	if n := len(doc.Waypoints); n > 0 {
		return fromPoint(doc.Waypoints[n-1]), nil
	}

	return locate.Coordinate{}, ErrNoFix
}

func fromPoint(p gpx.GPXPoint) locate.Coordinate {
	return locate.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// NominatimPinner places the map pin on an address looked up on
// OpenStreetMap Nominatim.
type NominatimPinner struct{}

// NewNominatimPinner configures the Nominatim server used by all lookups.
func NewNominatimPinner(server string) *NominatimPinner {
	if server == "" {
		server = DefaultNominatimServer
	}
	gominatim.SetServer(server)
	return &NominatimPinner{}
}

// Pin returns the coordinate of the best match for address.
func (n *NominatimPinner) Pin(ctx context.Context, address string) (locate.Coordinate, *gominatim.SearchResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return locate.Coordinate{}, nil, locate.ErrNoPin
	}
	if err := ctx.Err(); err != nil {
		return locate.Coordinate{}, nil, err
	}

	qry := gominatim.SearchQuery{
		Q: address,
	}

	results, err := qry.Get()
	if err != nil {
		return locate.Coordinate{}, nil, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return locate.Coordinate{}, nil, fmt.Errorf("%w: no results for %q", locate.ErrAddressNotFound, address)
	}

	coord, err := resultToCoordinate(results[0])
	if err != nil {
		return locate.Coordinate{}, nil, err
	}
	return coord, &results[0], nil
}

func resultToCoordinate(result gominatim.SearchResult) (locate.Coordinate, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return locate.Coordinate{}, fmt.Errorf("error parsing latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return locate.Coordinate{}, fmt.Errorf("error parsing longitude: %w", err)
	}

	return locate.Coordinate{Latitude: lat, Longitude: lng}, nil
}
