package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// serveCmd exposes the stored snapshots over a read-only HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only status API",
	Long: `Starts an HTTP server exposing the latest portfolio, plan, and
validation snapshots. Shuts down gracefully on SIGINT or SIGTERM.

Endpoints:
  GET /healthz
  GET /api/v1/portfolio
  GET /api/v1/plan
  GET /api/v1/validation`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, cleanup, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	server := a.newStatusServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("status API listening on :%s\n", a.cfg.APIPort)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.logger.WithField("signal", sig.String()).Info("shutting down status API")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
