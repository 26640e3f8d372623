package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/rubiojr/gasmap/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceResolver_EmptyInputMakesNoCalls(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		svc := &fakeService{}
		r := NewPlaceResolver(svc, testLogger())

		_, err := r.Resolve(context.Background(), name)
		require.ErrorIs(t, err, ErrEmptyInput)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, 0, svc.calls(), "name %q", name)
	}
}

func TestPlaceResolver_NotFound(t *testing.T) {
	svc := &fakeService{units: &api.UATList{Items: []api.UATItem{}}}
	r := NewPlaceResolver(svc, testLogger())

	_, err := r.Resolve(context.Background(), "Nonexistent City")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, 1, svc.calls())
}

func TestPlaceResolver_ItemWithoutIDIsNotFound(t *testing.T) {
	svc := &fakeService{units: &api.UATList{Items: []api.UATItem{{Name: "Ghost"}}}}
	r := NewPlaceResolver(svc, testLogger())

	_, err := r.Resolve(context.Background(), "Ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceResolver_FirstItemWins(t *testing.T) {
	svc := &fakeService{units: &api.UATList{Items: []api.UATItem{
		{ID: "U1", Name: "CLUJ-NAPOCA"},
		{ID: "U2", Name: "CLUJ"},
	}}}
	r := NewPlaceResolver(svc, testLogger())

	unit, err := r.Resolve(context.Background(), "  Cluj-Napoca ")
	require.NoError(t, err)
	assert.Equal(t, AdministrativeUnit{ID: "U1", Name: "CLUJ-NAPOCA"}, unit)
}

func TestPlaceResolver_TransportError(t *testing.T) {
	svc := &fakeService{err: &api.TransportError{Endpoint: api.EndpointUATByName, StatusCode: 500, Message: "boom"}}
	r := NewPlaceResolver(svc, testLogger())

	_, err := r.Resolve(context.Background(), "Turda")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindTransport, KindOf(err))
}
