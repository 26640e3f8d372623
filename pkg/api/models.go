package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier returned by the price monitor service. The service is
// not consistent about quoting ids, so both JSON numbers and strings decode
// to the same value.
type ID string

// UnmarshalJSON accepts "12", 12 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// UATList is the response of the administrative unit lookup.
type UATList struct {
	Items []UATItem `json:"Items"`
}

// UATItem is a single administrative unit (UAT) match.
type UATItem struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// GasItemList is the response of both station searches. Stations and
// Products are parallel lists joined by station id.
type GasItemList struct {
	Stations []GasStation `json:"Stations"`
	Products []GasProduct `json:"Products"`
}

// GasStation is a retail station as returned by the service.
type GasStation struct {
	ID      ID       `json:"id"`
	Name    string   `json:"name"`
	Addr    *Address `json:"addr"`
	Network *Network `json:"network"`
}

// Address holds the station address and its geographic location.
type Address struct {
	Location   *Location `json:"location"`
	AddrString string    `json:"addrstring"`
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"Lat"`
	Lon float64 `json:"Lon"`
}

// Network is the brand a station belongs to.
type Network struct {
	Name string `json:"name"`
	Logo *Logo  `json:"logo"`
}

// Logo points at the network logo image.
type Logo struct {
	LogoURI string `json:"logouri"`
}

// GasProduct is the price of the requested product at one station. Price is
// nil when the service reports the product without a price.
type GasProduct struct {
	StationID ID       `json:"stationid"`
	ProductID ID       `json:"id"`
	Price     *float64 `json:"price"`
}

// NetworkName returns the station network name, or an empty string.
func (s *GasStation) NetworkName() string {
	if s.Network == nil {
		return ""
	}
	return s.Network.Name
}

// LogoURI returns the network logo URI, or an empty string.
func (s *GasStation) LogoURI() string {
	if s.Network == nil || s.Network.Logo == nil {
		return ""
	}
	return s.Network.Logo.LogoURI
}

// Coordinates returns the station location. ok is false when the payload
// carried no location.
func (s *GasStation) Coordinates() (lat, lon float64, ok bool) {
	if s.Addr == nil || s.Addr.Location == nil {
		return 0, 0, false
	}
	return s.Addr.Location.Lat, s.Addr.Location.Lon, true
}
