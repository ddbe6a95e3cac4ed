package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lsmith090/CIPP-sub000/internal/navigation"
	"github.com/lsmith090/CIPP-sub000/internal/poller"
	"github.com/lsmith090/CIPP-sub000/internal/server"
	"github.com/lsmith090/CIPP-sub000/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway",
	Long:  `Starts the identity pollers and the HTTP surface for auth state and navigation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		menu, err := navigation.Load(cfg.MenuPath)
		if err != nil {
			return fmt.Errorf("failed to load menu: %w", err)
		}
		log.Printf("Loaded menu version %d (%d top-level entries)", menu.Version, len(menu.Items))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store := session.NewStore(cfg.Debug)
		client := poller.NewClient(cfg.PlatformEndpoint, cfg.PermissionEndpoint, cfg.FetchTimeout)
		p := poller.New(client, store, cfg.PollInterval, cfg.MaxRetries, cfg.Debug)

		go store.Run(ctx)
		go p.Run(ctx)

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: server.NewRouter(store, menu, cfg.AllowedOrigins),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Listening on %s", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
