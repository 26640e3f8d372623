// Package messages holds the user facing strings in Romanian and English.
package messages

import (
	"errors"
	"strings"

	"github.com/rubiojr/gasmap/internal/locate"
)

// Messages contains all text strings for the application.
type Messages struct {
	// Strategies
	StrategyCurrent string
	StrategyPin     string
	StrategyTown    string

	// Form
	ChooseStrategy  string
	TownPlaceholder string
	PinPrompt       string
	RadiusLabel     string
	ProductLabel    string
	Searching       string

	// Errors
	NoStrategy          string
	EmptyTown           string
	NoPin               string
	InvalidInput        string
	PermissionDenied    string
	TownNotFound        string
	AddressNotFound     string
	LocationUnavailable string
	ServiceUnavailable  string
	Canceled            string
	UnknownError        string

	// Results
	StationsFound   string
	NoStationsFound string
	Center          string
	KmAway          string
	NotAvailable    string
	SearchHistory   string
	PopularAreas    string
}

// Get returns the messages for lang, defaulting to Romanian.
func Get(lang string) Messages {
	switch Language(lang) {
	case "en":
		return English()
	default:
		return Romanian()
	}
}

// Language normalizes a language parameter to "ro" or "en".
func Language(param string) string {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "en", "english":
		return "en"
	default:
		return "ro"
	}
}

// Strategy returns the label of a strategy kind.
func (m Messages) Strategy(kind locate.StrategyKind) string {
	switch kind {
	case locate.StrategyCurrent:
		return m.StrategyCurrent
	case locate.StrategyPin:
		return m.StrategyPin
	case locate.StrategyTown:
		return m.StrategyTown
	}
	return string(kind)
}

// Error returns the message to show for a failed search.
func (m Messages) Error(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, locate.ErrNoStrategy):
		return m.NoStrategy
	case errors.Is(err, locate.ErrEmptyInput):
		return m.EmptyTown
	case errors.Is(err, locate.ErrNoPin):
		return m.NoPin
	case errors.Is(err, locate.ErrAddressNotFound):
		return m.AddressNotFound
	}

	switch locate.KindOf(err) {
	case locate.KindValidation:
		return m.InvalidInput + ": " + err.Error()
	case locate.KindPermissionDenied:
		return m.PermissionDenied
	case locate.KindNotFound:
		return m.TownNotFound
	case locate.KindLocationUnavailable:
		return m.LocationUnavailable
	case locate.KindTransport:
		return m.ServiceUnavailable
	case locate.KindCanceled:
		return m.Canceled
	}
	return m.UnknownError
}
