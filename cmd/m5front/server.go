package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/m5front/internal/config"
	"github.com/kalambet/m5front/internal/view"
	"github.com/kalambet/m5front/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forecast form on 127.0.0.1 (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		return runServer(e)
	},
}

func newServer(ctx context.Context, e *env) *http.Server {
	handler := web.NewHandler(web.Deps{
		Predictor: e.client,
		Options:   e.client,
		Mode:      inputMode(e.cfg),
	})

	return &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", e.cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}

func inputMode(cfg config.Config) view.InputMode {
	if cfg.UI.InputMode == config.InputModeText {
		return view.ModeText
	}
	return view.ModeSelect
}

func runServer(e *env) error {
	fmt.Fprintf(os.Stderr, "m5front version %s\n", version)
	setupLogging(os.Stderr, e.cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The form stays usable without the service: submissions just fail.
	if err := checkService(ctx, e); err != nil {
		printWarning("%v", err)
	}

	srv := newServer(ctx, e)

	errCh := make(chan error, 1)
	go func() {
		printStep("m5front listening on http://%s (input mode %s)", srv.Addr, e.cfg.UI.InputMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
