package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/todo/internal/api"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long:  "Serves the task store as a JSON API until interrupted. Binds to loopback unless --addr or server.addr say otherwise.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e := api.New(a.store, a.logger)

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP server listening", "addr", addr)
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			select {
			case err := <-errc:
				return fmt.Errorf("serve %s: %w", addr, err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.logger.Info("HTTP server shut down gracefully")
			return nil
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	return cmd
}

func (a *app) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or set the terminal UI theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: a.run(func(ctx context.Context, args []string) error {
			dark, err := a.store.DarkTheme(ctx)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				switch strings.ToLower(args[0]) {
				case "dark":
					dark = true
				case "light":
					dark = false
				case "toggle":
					dark = !dark
				default:
					return fmt.Errorf("unknown theme %q: use dark, light or toggle", args[0])
				}
				if err := a.store.SetDarkTheme(ctx, dark); err != nil {
					return err
				}
			}

			name := "light"
			if dark {
				name = "dark"
			}
			fmt.Fprintln(a.out, name)
			return nil
		}),
	}
}
