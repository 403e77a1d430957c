package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/handlers"
	"github.com/Lelcaren/mwangaza-rentals/internal/scheduler"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ServeCmd runs the HTTP API until SIGINT or SIGTERM.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.log.Info("Starting Mwangaza Rentals API", map[string]interface{}{
				"version":     handlers.APIVersion,
				"environment": a.cfg.Server.Env,
				"port":        a.cfg.Server.Port,
			})

			if migrate {
				if err := a.db.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("failed to migrate schema: %w", err)
				}
			}

			svc := a.services()

			var jobs *scheduler.Scheduler
			if a.cfg.Scheduler.Enabled {
				jobs = scheduler.New(a.log)
				if err := jobs.Add("mark-overdue", a.cfg.Scheduler.OverdueSpec, scheduler.MarkOverdueJob(svc.billing, time.Now)); err != nil {
					return err
				}
				jobs.Start()
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", a.cfg.Server.Port),
				Handler:           a.router(svc),
				ReadHeaderTimeout: readHeaderTimeout,
			}

			serveErr := make(chan error, 1)
			go func() {
				a.log.Info("Server listening", map[string]interface{}{
					"port": a.cfg.Server.Port,
					"addr": srv.Addr,
				})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			// Wait for interrupt signal (SIGINT or SIGTERM)
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-serveErr:
				if err != nil {
					a.log.Error("Server failed to start", err, nil)
					return err
				}
			case <-quit:
			}

			a.log.Info("Shutting down server...", nil)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error("Server forced to shutdown", err, map[string]interface{}{
					"timeout": shutdownTimeout.String(),
				})
			}
			if jobs != nil {
				if err := jobs.Stop(shutdownCtx); err != nil {
					a.log.Error("Scheduler did not stop in time", err, nil)
				}
			}

			a.log.Info("Server exited", nil)
			return nil
		},
	}

	cmd.Flags().Bool("migrate", false, "Apply the schema before serving")

	return cmd
}
