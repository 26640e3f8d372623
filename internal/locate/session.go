package locate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rubiojr/gasmap/internal/observability"
)

// Outcome is the settlement of one run started by a Session.
type Outcome struct {
	Generation uint64
	Result     *SearchResult
	Err        error
}

// Sink receives the outcome of the latest run. It is called with the
// session lock held and must not call back into the Session.
type Sink func(Outcome)

// Session runs searches on behalf of one user. Triggering a search
// supersedes the one in flight: the older run is canceled and, should it
// still settle, its outcome is discarded.
type Session struct {
	coord   *Coordinator
	sink    Sink
	metrics *observability.Metrics
	log     *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
	wg         sync.WaitGroup
}

// NewSession returns a Session delivering outcomes to sink. A nil sink drops
// them; callers then read the run state with State.
func NewSession(coord *Coordinator, sink Sink, logger *slog.Logger) *Session {
	if sink == nil {
		sink = func(Outcome) {}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		coord:   coord,
		sink:    sink,
		metrics: coord.metrics,
		log:     logger,
	}
}

// Trigger starts a run for req and returns its generation.
func (s *Session) Trigger(ctx context.Context, req Request) uint64 {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.state = StateResolving
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		res, err := s.coord.Resolve(runCtx, req)
		s.settle(gen, res, err)
	}()

	return gen
}

// Cancel abandons the run in flight, if any. Its outcome will be discarded.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.state = StateIdle
}

// State reports the state of the latest run.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until every started run has settled.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) settle(gen uint64, res *SearchResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.Debug("Discarding stale search result", "generation", gen, "current", s.generation)
		s.metrics.StaleDiscarded.Inc()
		return
	}

	s.cancel = nil
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
	s.sink(Outcome{Generation: gen, Result: res, Err: err})
}
