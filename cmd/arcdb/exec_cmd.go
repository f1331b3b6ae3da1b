package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chocapikk/arcdb/repl"
	"github.com/chocapikk/arcdb/sqlfe"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Run a single SQL statement and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		stmt, err := sqlfe.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parse error: %w", err)
		}
		conn := h.Engine.NewConnection()
		res, err := conn.Execute(stmt)
		if err != nil {
			return fmt.Errorf("execution error: %w", err)
		}
		fmt.Print(repl.FormatResult(res))
		return h.Catalog.Save(h.CatalogPath)
	},
}
