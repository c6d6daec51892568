package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/plugver/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start an HTTP server exposing the classification pipeline.

Endpoints:
  GET  /health            Health check
  POST /api/classify      Graded bump decision for a plugin diff
  POST /api/requires      Whether a diff requires a version bump
  POST /api/next-version  Next version for a bump kind
  POST /api/parse         Parse a diff into structured files
  POST /api/analyze       Offline rule-based classification of a diff
  GET  /api/ws            WebSocket streaming check runs`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	cmd.Flags().StringP("addr", "a", "", "address to listen on (default 127.0.0.1)")
	cmd.Flags().IntP("port", "p", 0, "port to listen on (default 8787)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := a.classifier(ctx)
	if err != nil {
		return err
	}

	var checker api.Checker
	if orch, err := a.pipeline(ctx, c); err != nil {
		a.log.Warn("check sessions disabled", err)
	} else {
		checker = orch
	}

	return api.New(a.cfg.Server.Address(), c, checker, a.log, api.WithLayout(a.layout())).ListenAndServe(ctx)
}
