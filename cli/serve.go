// ABOUTME: Web server subcommand
// ABOUTME: Runs the staff UI, upload portal and daily task generation until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	googlesync "github.com/harperreed/taxdesk/sync"
	"github.com/harperreed/taxdesk/web"
)

const shutdownTimeout = 10 * time.Second

// ServeCommand starts the web server.
func ServeCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "Override server.port")
	noSchedule := fs.Bool("no-schedule", false, "Do not run the daily task generator")
	_ = fs.Parse(args)

	cfg := app.Config
	if *port > 0 {
		cfg.Server.Port = *port
	}

	if err := googlesync.CheckCredentials(cfg.Google); err != nil {
		return fmt.Errorf("staff sign-in needs Google OAuth: %w", err)
	}
	auth := web.NewGoogleAuth(googlesync.NewOAuthConfig(cfg.Google), cfg.Google.Timeout)

	server, err := web.NewServer(web.Options{
		Config:    cfg,
		Desk:      app.Desk,
		Practice:  app.Practice,
		Generator: app.Generator,
		Auth:      auth,
		Logger:    app.Logger.Named("web"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*noSchedule {
		scheduler, err := app.Generator.Schedule(cfg.Tasks.Schedule)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		app.Logger.Info("task generation scheduled", zap.String("schedule", cfg.Tasks.Schedule))

		// Catch up if the server was down at the scheduled time.
		go func() {
			if _, err := app.Generator.Run(ctx, false); err != nil {
				app.Logger.Error("startup task generation failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
