package locate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rubiojr/gasmap/pkg/api"
)

// AdministrativeUnit is a town the station search can be scoped to.
type AdministrativeUnit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnitLookup queries administrative units by name.
type UnitLookup interface {
	UATByName(ctx context.Context, name string) (*api.UATList, error)
}

// PlaceResolver resolves free text town names to administrative units.
// Results are never cached.
type PlaceResolver struct {
	lookup UnitLookup
	log    *slog.Logger
}

func NewPlaceResolver(lookup UnitLookup, logger *slog.Logger) *PlaceResolver {
	return &PlaceResolver{lookup: lookup, log: logger}
}

// Resolve returns the first unit matching name. Blank names fail with
// ErrEmptyInput without querying the service, and an empty match list
// yields ErrNotFound.
func (r *PlaceResolver) Resolve(ctx context.Context, name string) (AdministrativeUnit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AdministrativeUnit{}, ErrEmptyInput
	}

	list, err := r.lookup.UATByName(ctx, name)
	if err != nil {
		return AdministrativeUnit{}, fmt.Errorf("error resolving town %q: %w", name, err)
	}

	if len(list.Items) == 0 || list.Items[0].ID == "" {
		return AdministrativeUnit{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	first := list.Items[0]
	if len(list.Items) > 1 {
		r.log.Debug("Multiple units matched, using the first", "town", name, "matches", len(list.Items), "unit", first.ID)
	}

	return AdministrativeUnit{ID: string(first.ID), Name: first.Name}, nil
}
