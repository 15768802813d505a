// Package serve implements the HTTP API server command.
package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/semai/wildscan-go/internal/api"
	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/logging"
	"github.com/semai/wildscan-go/internal/runtime"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WildScan HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&settings.HTTP.Host, "host", settings.HTTP.Host, "Address to bind to")
	cmd.Flags().StringVar(&settings.HTTP.Port, "port", settings.HTTP.Port, "Port to listen on")
	return cmd
}

func runServer(ctx context.Context, settings *conf.Settings) error {
	stack, err := runtime.Build(ctx, settings)
	if err != nil {
		return err
	}
	defer stack.Close()

	server := api.New(settings, stack.DS, stack.Scanner, stack.Blobs, stack.Provider, stack.Metrics, stack.Notifier)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logging.Info("Shutting down", "signal", sig.String())
	case <-ctx.Done():
		logging.Info("Shutting down", "reason", "context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
