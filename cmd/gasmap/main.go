package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "gasmap",
		Usage: "Find fuel stations and their prices around you, a map pin or a town",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			searchCommand(),
			shellCommand(),
			productsCommand(),
			historyCommand(),
			popularCommand(),
			serveCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
