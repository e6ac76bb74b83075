// Command ligd is the process entrypoint: it wires a storage.Backend, the
// Graph API, and OTel observability, then exposes every Graph API
// operation as a subcommand — the same direct-CLI-over-local-storage
// shape as the teacher's cmd/bd, minus a daemon/RPC layer (spec §1 keeps
// the transport out of scope).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ligaturedb/ligature/internal/config"
	"github.com/ligaturedb/ligature/internal/graph"
	"github.com/ligaturedb/ligature/internal/obs"
	"github.com/ligaturedb/ligature/internal/storage/factory"
)

var (
	svc        *graph.Service
	jsonOutput bool
	userID     string

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "ligd",
	Short:         "ligature graph database CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		requestID := uuid.NewString()
		trace.SpanFromContext(cmd.Context()).SetAttributes(attribute.String("ligature.request_id", requestID))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		shutdown, err := obs.Init(cfg.ServiceName)
		if err != nil {
			return fmt.Errorf("initializing observability: %w", err)
		}
		go func() {
			<-rootCtx.Done()
			_ = shutdown(context.Background())
		}()

		backend, err := factory.Open(rootCtx, cfg.StorageDSN)
		if err != nil {
			return fmt.Errorf("opening storage backend: %w", err)
		}
		svc = graph.NewService(backend, []byte(cfg.ZookieSecret))
		return nil
	},
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id attributed to mutating operations")

	rootCmd.AddCommand(schemaCmd, objectCmd, edgeCmd)

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func requireUser() (string, error) {
	if userID == "" {
		return "", fmt.Errorf("--user is required")
	}
	return userID, nil
}

func printJSON(v any) error {
	enc := jsonEncoder(os.Stdout)
	return enc.Encode(v)
}
