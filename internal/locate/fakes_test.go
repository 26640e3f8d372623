package locate

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/rubiojr/gasmap/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService stands in for the price monitor service and counts calls.
type fakeService struct {
	mu sync.Mutex

	units    *api.UATList
	stations *api.GasItemList
	err      error

	// block, when set, is received from before answering a station query.
	block chan struct{}

	unitCalls    int
	latLonCalls  int
	uatCalls     int
	lastRadiusKm int
	lastUnitID   string
	lastProducts []string
}

func (f *fakeService) UATByName(_ context.Context, _ string) (*api.UATList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unitCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.units == nil {
		return &api.UATList{}, nil
	}
	return f.units, nil
}

func (f *fakeService) GasItemsByLatLon(ctx context.Context, _, _ float64, radiusKm int, productIDs ...string) (*api.GasItemList, error) {
	f.mu.Lock()
	f.latLonCalls++
	f.lastRadiusKm = radiusKm
	f.lastProducts = productIDs
	block := f.block
	f.mu.Unlock()
	return f.answer(ctx, block)
}

func (f *fakeService) GasItemsByUAT(ctx context.Context, uatID string, productIDs ...string) (*api.GasItemList, error) {
	f.mu.Lock()
	f.uatCalls++
	f.lastUnitID = uatID
	f.lastProducts = productIDs
	block := f.block
	f.mu.Unlock()
	return f.answer(ctx, block)
}

func (f *fakeService) answer(_ context.Context, block chan struct{}) (*api.GasItemList, error) {
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.stations == nil {
		return &api.GasItemList{}, nil
	}
	return f.stations, nil
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unitCalls + f.latLonCalls + f.uatCalls
}

type fixedPosition struct {
	coord Coordinate
	err   error
}

func (p fixedPosition) CurrentPosition(context.Context) (Coordinate, error) {
	return p.coord, p.err
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []SearchRecord
}

func (m *memoryRecorder) RecordSearch(_ context.Context, rec SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func station(id string, lat, lon float64, network string) api.GasStation {
	return api.GasStation{
		ID:      api.ID(id),
		Addr:    &api.Address{Location: &api.Location{Lat: lat, Lon: lon}},
		Network: &api.Network{Name: network, Logo: &api.Logo{LogoURI: "https://example.com/" + network + ".png"}},
	}
}

func product(stationID string, price float64) api.GasProduct {
	return api.GasProduct{StationID: api.ID(stationID), Price: &price}
}
