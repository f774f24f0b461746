package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiton-rag/uploadui/internal/app"
	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/errors"
)

// Stylesheets the page was designed against.
var defaultStyleSheets = []string{
	"https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css",
	"https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.2/css/all.min.css",
}

const shutdownTimeout = 30 * time.Second

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		addr        string
		dev         bool
		styleSheets []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page",
		Long: `Serve the upload page, its WebSocket and the staging endpoint.

Examples:
  uploadui serve
  uploadui serve --addr=:9000
  API_BASE_URL=http://rag:8000 uploadui serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), cfg, logger, dev, styleSheets)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Disable asset caching")
	cmd.Flags().StringSliceVar(&styleSheets, "stylesheet", defaultStyleSheets, "Stylesheets linked before the bundled one")

	return cmd
}

func runServe(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, dev bool, styleSheets []string) error {
	a, err := app.New(cfg,
		app.WithLogger(logger),
		app.WithDevMode(dev),
		app.WithStyleSheets(styleSheets...),
	)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return errors.New("E140").
			Wrap(err).
			WithDetail(err.Error()).
			WithSuggestion(fmt.Sprintf("Choose another address with --addr or %s", config.EnvListenAddr))
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go a.RunCleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	printBanner(out)
	success(out, "Listening on http://%s", ln.Addr())
	info(out, "API: %s", cfg.APIBaseURL)
	info(out, "Staging: %s", cfg.Staging.Backend)
	fmt.Fprintln(out)

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("E140").Wrap(err).WithDetail(err.Error())
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Sessions are hijacked connections; http.Server.Shutdown does not
	// wait for them.
	sessErr := a.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sessErr != nil {
		logger.Warn("sessions did not close in time", "error", sessErr)
	}
	logger.Info("server stopped")
	return nil
}
