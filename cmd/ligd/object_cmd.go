package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Create, read, update, and delete graph objects",
}

var objectAt string

var objectCreateCmd = &cobra.Command{
	Use:   "create <type-name> <metadata-file>",
	Short: "Create an object, validating metadata against its type's schema",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := requireUser()
		if err != nil {
			return err
		}
		metadataJSON, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		obj, zookie, err := svc.CreateObject(cmd.Context(), uid, args[0], string(metadataJSON))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"object": obj, "zookie": zookie})
	},
}

var objectGetCmd = &cobra.Command{
	Use:   "get <object-id>",
	Short: "Read an object at the requested consistency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		obj, zookie, err := svc.GetObject(cmd.Context(), id, consistencyFromFlag(objectAt))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"object": obj, "zookie": zookie})
	},
}

var objectUpdateCmd = &cobra.Command{
	Use:   "update <object-id> <metadata-file>",
	Short: "Install a new metadata version for an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		metadataJSON, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		obj, zookie, err := svc.UpdateObject(cmd.Context(), id, string(metadataJSON))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"object": obj, "zookie": zookie})
	},
}

var objectDeleteCmd = &cobra.Command{
	Use:   "delete <object-id>",
	Short: "Tombstone an object and cascade to its incident edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		zookie, err := svc.DeleteObject(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"zookie": zookie})
	},
}

func init() {
	objectGetCmd.Flags().StringVar(&objectAt, "at", "", "zookie for at_least_as_fresh, or \"latest\" for minimize_latency")
	objectCmd.AddCommand(objectCreateCmd, objectGetCmd, objectUpdateCmd, objectDeleteCmd)
}
