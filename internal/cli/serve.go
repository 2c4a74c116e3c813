package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/framescope/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the HTTP API and websocket chat server.

Examples:
  framescope serve                 # Listen on FRAMESCOPE_ADDR (default :8080)
  framescope serve --addr :3001    # Listen on port 3001`,
	RunE: withApp(runServe),
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides FRAMESCOPE_ADDR)")
}

func runServe(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := app.Config
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := web.NewServer(web.Config{
		Addr:            addr,
		Mode:            app.Mode,
		CORSOrigins:     cfg.CORSOrigins,
		SessionTTL:      cfg.SessionTTL,
		CleanupInterval: cfg.CleanupInterval,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, web.Deps{
		Store:    app.Store,
		Ingestor: app.Ingestor,
		Parsers:  app.Parsers,
		Registry: app.Registry,
		Catalog:  app.Catalog,
		Chat:     app.Chat,
		Turns:    app.TurnRepo,
		Logger:   app.Logger,
	})

	app.Logger.Info("reasoner configured",
		"mode", app.Mode,
		"model", app.Reasoner.Model(),
		"max_iterations", cfg.Reasoner.MaxIterations,
	)
	return server.Start(ctx)
}
