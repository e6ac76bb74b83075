package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Create, read, update, and delete graph edges",
}

var edgeAt string

var edgeCreateCmd = &cobra.Command{
	Use:   "create <from-id> <from-type> <relation> <to-id> <to-type> [metadata-file]",
	Short: "Create a directed edge, rejecting type mismatches and cycles",
	Args:  cobra.RangeArgs(5, 6),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := requireUser()
		if err != nil {
			return err
		}
		fromID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		toID, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return err
		}
		metadataJSON := "{}"
		if len(args) == 6 {
			raw, err := os.ReadFile(args[5])
			if err != nil {
				return err
			}
			metadataJSON = string(raw)
		}

		edge, zookie, err := svc.CreateEdge(cmd.Context(), uid, fromID, args[1], toID, args[4], args[2], metadataJSON)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"edge": edge, "zookie": zookie})
	},
}

var edgeGetCmd = &cobra.Command{
	Use:   "get <object-id> <relation>",
	Short: "Read the lowest-id live edge from an object via a relation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		edge, target, zookie, err := svc.GetEdge(cmd.Context(), id, args[1], consistencyFromFlag(edgeAt))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"edge": edge, "target": target, "zookie": zookie})
	},
}

var edgeListCmd = &cobra.Command{
	Use:   "list <object-id> <relation>",
	Short: "Read every target reachable from an object via a relation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		targets, zookie, err := svc.GetEdges(cmd.Context(), id, args[1], consistencyFromFlag(edgeAt))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"targets": targets, "zookie": zookie})
	},
}

var edgeUpdateCmd = &cobra.Command{
	Use:   "update <edge-id> <metadata-file>",
	Short: "Install a new metadata version for an edge",
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
		edge, zookie, err := svc.UpdateEdge(cmd.Context(), id, string(metadataJSON))
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"edge": edge, "zookie": zookie})
	},
}

var edgeDeleteCmd = &cobra.Command{
	Use:   "delete <edge-id>",
	Short: "Tombstone an edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		zookie, err := svc.DeleteEdge(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"zookie": zookie})
	},
}

func init() {
	edgeGetCmd.Flags().StringVar(&edgeAt, "at", "", "zookie for at_least_as_fresh, or \"latest\" for minimize_latency")
	edgeListCmd.Flags().StringVar(&edgeAt, "at", "", "zookie for at_least_as_fresh, or \"latest\" for minimize_latency")
	edgeCmd.AddCommand(edgeCreateCmd, edgeGetCmd, edgeListCmd, edgeUpdateCmd, edgeDeleteCmd)
}
