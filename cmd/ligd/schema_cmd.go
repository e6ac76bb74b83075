package main

import (
	"os"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage per-type JSON Schemas",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create <type-name> <schema-file> [description]",
	Short: "Register a JSON Schema for a type",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaJSON, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		description := ""
		if len(args) == 3 {
			description = args[2]
		}

		id, err := svc.CreateSchema(cmd.Context(), args[0], string(schemaJSON), description)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"schema_id": id, "type_name": args[0]})
	},
}

func init() {
	schemaCmd.AddCommand(schemaCreateCmd)
}
