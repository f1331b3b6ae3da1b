package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chocapikk/arcdb/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive SQL session",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		r := repl.New(h.Engine, h.Catalog, h.CatalogPath, os.Stdout)
		r.Run(os.Stdin)
		return nil
	},
}
