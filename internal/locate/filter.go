package locate

import "fmt"

// Filter is the search form: the chosen strategy with its inputs and the
// radius. The zero value is not usable, call NewFilter.
type Filter struct {
	kind     StrategyKind
	town     string
	pin      *Coordinate
	radiusKm int
}

func NewFilter() *Filter {
	return &Filter{radiusKm: MinRadiusKm}
}

// Reset clears the strategy selection, the town text and the pin. It is
// called every time the form is shown again; the radius is kept.
func (f *Filter) Reset() {
	f.kind = ""
	f.town = ""
	f.pin = nil
}

// Select picks a strategy. Moving away from the town strategy forgets the
// town text.
func (f *Filter) Select(kind StrategyKind) {
	f.kind = kind
	if kind != StrategyTown {
		f.town = ""
	}
}

func (f *Filter) SetTown(text string) {
	f.town = text
}

func (f *Filter) PlacePin(c Coordinate) {
	f.pin = &c
}

func (f *Filter) SetRadius(km int) error {
	if km < MinRadiusKm || km > MaxRadiusKm {
		return &ValidationError{Field: "radius", Reason: fmt.Sprintf("%d km is outside %d..%d km", km, MinRadiusKm, MaxRadiusKm)}
	}
	f.radiusKm = km
	return nil
}

func (f *Filter) Kind() StrategyKind { return f.kind }
func (f *Filter) Town() string       { return f.town }
func (f *Filter) RadiusKm() int      { return f.radiusKm }

// Pin returns the placed pin, or nil.
func (f *Filter) Pin() *Coordinate {
	if f.pin == nil {
		return nil
	}
	c := *f.pin
	return &c
}

// Strategy builds the selected strategy.
func (f *Filter) Strategy() (Strategy, error) {
	switch f.kind {
	case StrategyCurrent:
		return CurrentPosition{}, nil
	case StrategyPin:
		return ManualPin{Pin: f.Pin()}, nil
	case StrategyTown:
		return TownName{Text: f.town}, nil
	}
	return nil, ErrNoStrategy
}

// Request builds a search request for productID.
func (f *Filter) Request(productID string) (Request, error) {
	s, err := f.Strategy()
	if err != nil {
		return Request{}, err
	}
	return Request{Strategy: s, ProductID: productID, RadiusKm: f.radiusKm}, nil
}
