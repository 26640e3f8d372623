package locate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rubiojr/gasmap/internal/observability"
	"github.com/rubiojr/gasmap/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomes struct {
	mu  sync.Mutex
	got []Outcome
}

func (o *outcomes) sink(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, out)
}

func (o *outcomes) all() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Outcome(nil), o.got...)
}

// blockingQuerier answers the first station query only when released and
// every later query immediately.
type blockingQuerier struct {
	release chan struct{}
	started chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingQuerier) GasItemsByLatLon(ctx context.Context, lat, lon float64, _ int, _ ...string) (*api.GasItemList, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()

	if first {
		close(b.started)
		// Ignores ctx on purpose: a stale run may settle after being superseded.
		<-b.release
		return &api.GasItemList{Stations: []api.GasStation{station("old", lat, lon, "Stale")}}, nil
	}
	return &api.GasItemList{Stations: []api.GasStation{station("new", lat, lon, "Fresh")}}, nil
}

func (b *blockingQuerier) GasItemsByUAT(context.Context, string, ...string) (*api.GasItemList, error) {
	return &api.GasItemList{}, nil
}

func TestSession_StaleResultIsDiscarded(t *testing.T) {
	q := &blockingQuerier{release: make(chan struct{}), started: make(chan struct{})}
	metrics := observability.NewMetricsForTesting()
	coord := NewCoordinator(Dependencies{Stations: q, Units: &fakeService{}, Metrics: metrics, Logger: testLogger()})

	var out outcomes
	s := NewSession(coord, out.sink, testLogger())
	pin := Coordinate{Latitude: 46.77, Longitude: 23.59}
	req := Request{Strategy: ManualPin{Pin: &pin}, ProductID: "11", RadiusKm: 1}

	first := s.Trigger(context.Background(), req)
	<-q.started
	assert.Equal(t, StateResolving, s.State())

	second := s.Trigger(context.Background(), req)
	require.Greater(t, second, first)

	require.Eventually(t, func() bool { return len(out.all()) == 1 }, 2*time.Second, 5*time.Millisecond)
	close(q.release)
	s.Wait()

	got := out.all()
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0].Generation)
	require.NoError(t, got[0].Err)
	require.Len(t, got[0].Result.Markers, 1)
	assert.Equal(t, "Fresh", got[0].Result.Markers[0].Title)
	assert.Equal(t, StateSucceeded, s.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StaleDiscarded))
}

func TestSession_CancelDiscardsInFlightRun(t *testing.T) {
	q := &blockingQuerier{release: make(chan struct{}), started: make(chan struct{})}
	coord := NewCoordinator(Dependencies{Stations: q, Units: &fakeService{}, Logger: testLogger()})

	var out outcomes
	s := NewSession(coord, out.sink, testLogger())
	pin := Coordinate{Latitude: 46.77, Longitude: 23.59}

	s.Trigger(context.Background(), Request{Strategy: ManualPin{Pin: &pin}, ProductID: "11", RadiusKm: 1})
	<-q.started
	s.Cancel()
	assert.Equal(t, StateIdle, s.State())

	close(q.release)
	s.Wait()
	assert.Empty(t, out.all())
}

func TestSession_FailureIsDelivered(t *testing.T) {
	coord := NewCoordinator(Dependencies{Stations: &fakeService{}, Units: &fakeService{}, Logger: testLogger()})

	var out outcomes
	s := NewSession(coord, out.sink, testLogger())
	s.Trigger(context.Background(), Request{Strategy: CurrentPosition{}, ProductID: "11", RadiusKm: 1})
	s.Wait()

	got := out.all()
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, ErrPermissionDenied)
	assert.Equal(t, StateFailed, s.State())
}

func TestSession_NilSink(t *testing.T) {
	coord := NewCoordinator(Dependencies{Stations: &fakeService{}, Units: &fakeService{}, Logger: testLogger()})

	s := NewSession(coord, nil, nil)
	s.Trigger(context.Background(), Request{Strategy: CurrentPosition{}, ProductID: "11", RadiusKm: 1})
	s.Wait()
	assert.Equal(t, StateFailed, s.State())

	pin := Coordinate{Latitude: 46.77, Longitude: 23.59}
	s.Trigger(context.Background(), Request{Strategy: ManualPin{Pin: &pin}, ProductID: "11", RadiusKm: 1})
	s.Wait()
	assert.Equal(t, StateSucceeded, s.State())
}
