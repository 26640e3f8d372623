package locate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rubiojr/gasmap/pkg/api"
	"github.com/tkrajina/gpxgo/gpx"
)

// NotAvailable is shown instead of a price when a station has none.
const NotAvailable = "N/A"

// Price is a station price that may be unknown. Unknown prices render and
// encode as NotAvailable, never as zero.
type Price struct {
	Value float64
	Known bool
}

func KnownPrice(v float64) Price {
	return Price{Value: v, Known: true}
}

func (p Price) String() string {
	if !p.Known {
		return NotAvailable
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(p.Value)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != NotAvailable {
			return fmt.Errorf("invalid price %q", s)
		}
		*p = Price{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	*p = KnownPrice(v)
	return nil
}

// Marker is a station ready to be plotted on a map.
type Marker struct {
	StationID  string   `json:"stationId"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Title      string   `json:"title"`
	Price      Price    `json:"price"`
	LogoURI    string   `json:"logo"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// Coordinate returns the marker position.
func (m Marker) Coordinate() Coordinate {
	return Coordinate{Latitude: m.Latitude, Longitude: m.Longitude}
}

// Project turns a station search payload into one marker per station, in
// station order. Prices are joined by station id; when the payload carries
// more than one price for a station the first one wins. Rows without a price
// count as missing.
func Project(stations []api.GasStation, products []api.GasProduct) []Marker {
	prices := make(map[api.ID]float64, len(products))
	for _, p := range products {
		if p.Price == nil {
			continue
		}
		if _, seen := prices[p.StationID]; seen {
			continue
		}
		prices[p.StationID] = *p.Price
	}

	markers := make([]Marker, 0, len(stations))
	for i := range stations {
		station := &stations[i]
		lat, lon, _ := station.Coordinates()

		price := Price{}
		if v, ok := prices[station.ID]; ok {
			price = KnownPrice(v)
		}

		markers = append(markers, Marker{
			StationID: string(station.ID),
			Latitude:  lat,
			Longitude: lon,
			Title:     station.NetworkName(),
			Price:     price,
			LogoURI:   station.LogoURI(),
		})
	}

	return markers
}

// withDistances annotates every marker with its distance to center.
func withDistances(markers []Marker, center Coordinate) {
	for i := range markers {
		d := gpx.Distance2D(center.Latitude, center.Longitude, markers[i].Latitude, markers[i].Longitude, true) / api.MetersPerKm
		markers[i].DistanceKm = &d
	}
}
