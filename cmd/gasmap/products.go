package main

import (
	"fmt"

	"github.com/rubiojr/gasmap/internal/locate"
	"github.com/urfave/cli/v2"
)

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:   "products",
		Usage:  "List the products that can be priced",
		Action: productsAction,
	}
}

func productsAction(c *cli.Context) error {
	for _, p := range locate.Products {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", p.ID, p.Name)
	}
	return nil
}
