package locate

import (
	"fmt"
	"math"
	"strings"
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c is usable as a search center. The (0,0) point is
// what devices report when they have no fix, so it is rejected.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return false
	}
	return c.Latitude != 0 || c.Longitude != 0
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// StrategyKind names one of the location strategies.
type StrategyKind string

const (
	StrategyCurrent StrategyKind = "current"
	StrategyPin     StrategyKind = "pin"
	StrategyTown    StrategyKind = "town"
)

// StrategyKinds lists the strategies in the order they are offered to users.
var StrategyKinds = []StrategyKind{StrategyCurrent, StrategyPin, StrategyTown}

// ParseStrategyKind maps user input to a StrategyKind.
func ParseStrategyKind(s string) (StrategyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "current", "position", "gps":
		return StrategyCurrent, nil
	case "pin", "map":
		return StrategyPin, nil
	case "town", "city", "oras":
		return StrategyTown, nil
	}
	return "", &ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", s)}
}

// Strategy is the location input of one search. It is implemented only by
// CurrentPosition, ManualPin and TownName.
type Strategy interface {
	Kind() StrategyKind
	isStrategy()
}

// CurrentPosition searches around the device position.
type CurrentPosition struct{}

// ManualPin searches around a point placed on the map. A nil Pin means no
// pin has been placed yet.
type ManualPin struct {
	Pin *Coordinate
}

// TownName searches inside the administrative unit matching Text.
type TownName struct {
	Text string
}

func (CurrentPosition) Kind() StrategyKind { return StrategyCurrent }
func (ManualPin) Kind() StrategyKind       { return StrategyPin }
func (TownName) Kind() StrategyKind        { return StrategyTown }

func (CurrentPosition) isStrategy() {}
func (ManualPin) isStrategy()       {}
func (TownName) isStrategy()        {}
