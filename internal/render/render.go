// Package render writes a search result as text, JSON or GPX.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/rubiojr/gasmap/internal/messages"
	"github.com/rubiojr/gasmap/pkg/api"
	"github.com/tkrajina/gpxgo/gpx"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatGPX  Format = "gpx"
)

const (
	earthRadiusMeters = 6371000
	circleSegments    = 36
	creator           = "gasmap"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatGPX:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Write renders res to w in the given format.
func Write(w io.Writer, format Format, res *locate.SearchResult, msg messages.Messages) error {
	switch format {
	case FormatJSON:
		return JSON(w, res)
	case FormatGPX:
		return GPX(w, res)
	default:
		return Text(w, res, msg)
	}
}

func Text(w io.Writer, res *locate.SearchResult, msg messages.Messages) error {
	product := res.ProductID
	if p, err := locate.LookupProduct(res.ProductID); err == nil {
		product = p.Name
	}

	place := res.Center.String()
	if res.Unit != nil {
		place = res.Unit.Name
	}
	fmt.Fprintf(w, "%s: %s (%s, %d km)\n", msg.Strategy(res.Strategy), place, product, res.RadiusKm)
	if res.Unit != nil {
		fmt.Fprintf(w, "%s: %s\n", msg.Center, res.Center)
	}

	if len(res.Markers) == 0 {
		_, err := fmt.Fprintln(w, msg.NoStationsFound)
		return err
	}
	fmt.Fprintf(w, "%d %s\n\n", len(res.Markers), msg.StationsFound)

	for i, m := range res.Markers {
		fmt.Fprintf(w, "%d. %s\n", i+1, m.Title)
		fmt.Fprintf(w, "   %s: %s\n", product, m.Price)
		if m.DistanceKm != nil {
			fmt.Fprintf(w, "   %.2f %s\n", *m.DistanceKm, msg.KmAway)
		}
		if _, err := fmt.Fprintf(w, "   %.6f, %.6f\n", m.Latitude, m.Longitude); err != nil {
			return err
		}
	}
	return nil
}

func JSON(w io.Writer, res *locate.SearchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// GPX writes one waypoint per station plus the search center and a closed
// track outlining the search radius.
func GPX(w io.Writer, res *locate.SearchResult) error {
	doc := Document(res)
	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("error encoding GPX: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func Document(res *locate.SearchResult) *gpx.GPX {
	doc := &gpx.GPX{
		Creator: creator,
		Name:    fmt.Sprintf("%s %s %d km", res.Strategy, res.ProductID, res.RadiusKm),
	}

	for _, m := range res.Markers {
		wpt := gpx.GPXPoint{
			Point:       gpx.Point{Latitude: m.Latitude, Longitude: m.Longitude},
			Name:        m.Title,
			Description: m.Price.String(),
			Type:        "station",
		}
		if m.LogoURI != "" {
			wpt.Comment = m.LogoURI
		}
		doc.Waypoints = append(doc.Waypoints, wpt)
	}

	if !res.Center.Valid() {
		return doc
	}

	center := gpx.GPXPoint{
		Point: gpx.Point{Latitude: res.Center.Latitude, Longitude: res.Center.Longitude},
		Name:  "center",
		Type:  "center",
	}
	if res.Unit != nil {
		center.Name = res.Unit.Name
	}
	doc.Waypoints = append(doc.Waypoints, center)

	doc.Tracks = append(doc.Tracks, gpx.GPXTrack{
		Name: fmt.Sprintf("%d km", res.RadiusKm),
		Segments: []gpx.GPXTrackSegment{
			{Points: Circle(res.Center, float64(res.RadiusKm*api.MetersPerKm))},
		},
	})
	return doc
}

// Circle returns a closed ring of points at radiusMeters around center.
func Circle(center locate.Coordinate, radiusMeters float64) []gpx.GPXPoint {
	lat1 := center.Latitude * math.Pi / 180
	lon1 := center.Longitude * math.Pi / 180
	d := radiusMeters / earthRadiusMeters

	points := make([]gpx.GPXPoint, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		bearing := 2 * math.Pi * float64(i%circleSegments) / circleSegments
		lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
		lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
		points = append(points, gpx.GPXPoint{
			Point: gpx.Point{Latitude: lat2 * 180 / math.Pi, Longitude: lon2 * 180 / math.Pi},
		})
	}
	return points
}
