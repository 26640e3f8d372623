// Package locate turns a location strategy, a product and a search radius
// into a list of price annotated station markers.
package locate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rubiojr/gasmap/internal/observability"
)

const (
	MinRadiusKm = 1
	MaxRadiusKm = 5
)

// State is the lifecycle of one search run.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Request is the input of one search.
type Request struct {
	Strategy  Strategy
	ProductID string
	RadiusKm  int
}

// normalize validates r and replaces a product name with its catalog id.
func (r Request) normalize() (Request, error) {
	if r.Strategy == nil {
		return r, ErrNoStrategy
	}
	if r.RadiusKm < MinRadiusKm || r.RadiusKm > MaxRadiusKm {
		return r, &ValidationError{
			Field:  "radius",
			Reason: fmt.Sprintf("%d km is outside %d..%d km", r.RadiusKm, MinRadiusKm, MaxRadiusKm),
		}
	}
	p, err := LookupProduct(r.ProductID)
	if err != nil {
		return r, err
	}
	r.ProductID = p.ID
	return r, nil
}

// SearchResult is what a map consumer needs to plot a search.
type SearchResult struct {
	Center     Coordinate          `json:"center"`
	RadiusKm   int                 `json:"radiusKm"`
	Markers    []Marker            `json:"markers"`
	Strategy   StrategyKind        `json:"strategy"`
	ProductID  string              `json:"productId"`
	Unit       *AdministrativeUnit `json:"unit,omitempty"`
	ResolvedAt time.Time           `json:"resolvedAt"`
}

// SearchRecord describes a finished run for the search history.
type SearchRecord struct {
	RunID     string
	Strategy  StrategyKind
	ProductID string
	RadiusKm  int
	Center    *Coordinate
	UnitID    string
	Markers   int
	State     State
	ErrorKind ErrorKind
	At        time.Time
}

// Recorder stores finished runs.
type Recorder interface {
	RecordSearch(ctx context.Context, rec SearchRecord) error
}

// Dependencies wires a Coordinator. Gate and Position are only needed for
// the current position strategy; History, Metrics and Clock are optional.
type Dependencies struct {
	Gate     PermissionGate
	Position PositionSource
	Units    UnitLookup
	Stations StationQuerier
	History  Recorder
	Metrics  *observability.Metrics
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// Coordinator runs searches. It keeps no state between runs and is safe for
// concurrent use.
type Coordinator struct {
	gate     PermissionGate
	position PositionSource
	places   *PlaceResolver
	stations StationQuerier
	history  Recorder
	metrics  *observability.Metrics
	clock    clockwork.Clock
	log      *slog.Logger
}

func NewCoordinator(d Dependencies) *Coordinator {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if d.Gate == nil {
		d.Gate = StaticGate(Denied)
	}
	return &Coordinator{
		gate:     d.Gate,
		position: d.Position,
		places:   NewPlaceResolver(d.Units, d.Logger),
		stations: d.Stations,
		history:  d.History,
		metrics:  d.Metrics,
		clock:    d.Clock,
		log:      d.Logger,
	}
}

// WithDevice returns a copy of c that uses another permission gate and
// position source, for callers that learn the device state per request.
func (c *Coordinator) WithDevice(gate PermissionGate, position PositionSource) *Coordinator {
	cp := *c
	cp.gate = gate
	cp.position = position
	return &cp
}

type run struct {
	id    string
	state State
	start time.Time
	log   *slog.Logger
}

func (r *run) transition(to State) {
	r.log.Debug("Search state changed", "from", r.state, "to", to)
	r.state = to
}

// Resolve executes one search run. Every run ends with exactly one of a
// result or an error; errors are never partial results.
func (c *Coordinator) Resolve(ctx context.Context, req Request) (*SearchResult, error) {
	r := &run{id: uuid.NewString(), state: StateIdle, start: c.clock.Now()}
	req, err := req.normalize()
	r.log = c.log.With("run_id", r.id, "strategy", strategyLabel(req.Strategy), "product", req.ProductID, "radius_km", req.RadiusKm)
	r.transition(StateResolving)

	var res *SearchResult
	if err == nil {
		res, err = c.resolve(ctx, r.log, req)
	}
	if err != nil {
		r.transition(StateFailed)
		r.log.Info("Search failed", "kind", KindOf(err), "error", err)
	} else {
		r.transition(StateSucceeded)
		r.log.Info("Search succeeded", "markers", len(res.Markers), "center", res.Center)
		c.metrics.MarkersReturned.Observe(float64(len(res.Markers)))
	}

	label := strategyLabel(req.Strategy)
	c.metrics.Runs.WithLabelValues(label, r.state.String()).Inc()
	c.metrics.RunDuration.WithLabelValues(label).Observe(c.clock.Since(r.start).Seconds())
	c.record(ctx, r, req, res, err)

	return res, err
}

// resolve dispatches a normalized request to its strategy.
func (c *Coordinator) resolve(ctx context.Context, log *slog.Logger, req Request) (*SearchResult, error) {
	switch s := req.Strategy.(type) {
	case CurrentPosition:
		center, err := c.currentPosition(ctx)
		if err != nil {
			return nil, err
		}
		log.Debug("Using current position", "center", center)
		return c.searchAround(ctx, req, center)

	case ManualPin:
		if s.Pin == nil {
			return nil, ErrNoPin
		}
		if !s.Pin.Valid() {
			return nil, fmt.Errorf("%w: invalid pin %s", ErrLocationUnavailable, s.Pin)
		}
		return c.searchAround(ctx, req, *s.Pin)

	case TownName:
		unit, err := c.places.Resolve(ctx, s.Text)
		if err != nil {
			return nil, err
		}
		log.Debug("Town resolved", "unit", unit.ID, "name", unit.Name)
		return c.searchUnit(ctx, req, unit)
	}

	return nil, ErrNoStrategy
}

func (c *Coordinator) currentPosition(ctx context.Context) (Coordinate, error) {
	perm, err := c.gate.RequestAccess(ctx)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if perm != Granted {
		return Coordinate{}, ErrPermissionDenied
	}

	if c.position == nil {
		return Coordinate{}, fmt.Errorf("%w: no position source", ErrLocationUnavailable)
	}
	coord, err := c.position.CurrentPosition(ctx)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if !coord.Valid() {
		return Coordinate{}, fmt.Errorf("%w: invalid coordinates %s", ErrLocationUnavailable, coord)
	}
	return coord, nil
}

func (c *Coordinator) searchAround(ctx context.Context, req Request, center Coordinate) (*SearchResult, error) {
	list, err := c.stations.GasItemsByLatLon(ctx, center.Latitude, center.Longitude, req.RadiusKm, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("error fetching stations around %s: %w", center, err)
	}

	markers := Project(list.Stations, list.Products)
	withDistances(markers, center)

	return &SearchResult{
		Center:     center,
		RadiusKm:   req.RadiusKm,
		Markers:    markers,
		Strategy:   req.Strategy.Kind(),
		ProductID:  req.ProductID,
		ResolvedAt: c.clock.Now(),
	}, nil
}

// searchUnit has no coordinate to center on, so the map is centered on the
// first station, or on the zero coordinate when there are none.
func (c *Coordinator) searchUnit(ctx context.Context, req Request, unit AdministrativeUnit) (*SearchResult, error) {
	list, err := c.stations.GasItemsByUAT(ctx, unit.ID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("error fetching stations in unit %s: %w", unit.ID, err)
	}

	markers := Project(list.Stations, list.Products)
	var center Coordinate
	if len(markers) > 0 {
		center = markers[0].Coordinate()
	}

	return &SearchResult{
		Center:     center,
		RadiusKm:   req.RadiusKm,
		Markers:    markers,
		Strategy:   req.Strategy.Kind(),
		ProductID:  req.ProductID,
		Unit:       &unit,
		ResolvedAt: c.clock.Now(),
	}, nil
}

// record appends the run to the history store. Failing to do so is logged
// and never changes the run outcome.
func (c *Coordinator) record(ctx context.Context, r *run, req Request, res *SearchResult, err error) {
	if c.history == nil {
		return
	}

	rec := SearchRecord{
		RunID:     r.id,
		Strategy:  StrategyKind(strategyLabel(req.Strategy)),
		ProductID: req.ProductID,
		RadiusKm:  req.RadiusKm,
		State:     r.state,
		ErrorKind: KindOf(err),
		At:        c.clock.Now(),
	}
	if res != nil {
		rec.Markers = len(res.Markers)
		if res.Center.Valid() {
			center := res.Center
			rec.Center = &center
		}
		if res.Unit != nil {
			rec.UnitID = res.Unit.ID
		}
	}

	if err := c.history.RecordSearch(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Error("Failed to record search", "error", err)
	}
}

func strategyLabel(s Strategy) string {
	if s == nil {
		return "none"
	}
	return string(s.Kind())
}
