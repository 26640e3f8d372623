package locate

import (
	"fmt"
	"strings"
)

// Product is an entry of the fuel and energy catalog.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Products is the catalog the price monitor service knows about.
var Products = []Product{
	{ID: "11", Name: "Benzina Standard"},
	{ID: "12", Name: "Benzina Premium"},
	{ID: "21", Name: "Motorina Standard"},
	{ID: "22", Name: "Motorina Premium"},
	{ID: "31", Name: "GPL"},
	{ID: "41", Name: "Incarcare electrica"},
}

// LookupProduct finds a catalog product by id or by case-insensitive name.
func LookupProduct(s string) (Product, error) {
	s = strings.TrimSpace(s)
	for _, p := range Products {
		if p.ID == s || strings.EqualFold(p.Name, s) {
			return p, nil
		}
	}
	return Product{}, &ValidationError{Field: "product", Reason: fmt.Sprintf("unknown product %q", s)}
}
