package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/tutorrec/internal/http"
	"github.com/example/tutorrec/internal/publish"
)

func newServeCommand(ctx context.Context, env Env) *cobra.Command {
	var (
		portFlag    int
		publishFlag string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the calendar feed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := env.Config.HTTPPort
			if cmd.Flags().Changed("port") {
				port = portFlag
			}

			logger := loggerOrDefault(env.Logger)

			publishPath := env.Config.PublishPath
			if cmd.Flags().Changed("publish") {
				publishPath = publishFlag
			}
			if publishPath != "" {
				publisher, err := publish.NewPublisher(env.Service, publishPath, env.Config.CalendarName, logger)
				if err != nil {
					return err
				}
				go func() {
					if err := publisher.Run(ctx, env.Config.PublishSchedule); err != nil {
						logger.Error("calendar publishing stopped", "error", err)
					}
				}()
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           newHandler(env),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			return runServer(ctx, server, logger)
		},
	}

	cmd.Flags().IntVar(&portFlag, "port", 0, "Listen port (default from TUTORREC_HTTP_PORT)")
	cmd.Flags().StringVar(&publishFlag, "publish", "", "Keep an iCalendar file at this path up to date (default from TUTORREC_PUBLISH_PATH)")
	return cmd
}

func newHandler(env Env) http.Handler {
	logger := loggerOrDefault(env.Logger)

	middleware := []func(http.Handler) http.Handler{
		httptransport.RequestLogger(logger),
		httptransport.Recoverer(logger),
	}
	if env.Config.RateLimitRPS > 0 {
		limiter := httptransport.NewRateLimiter(env.Config.RateLimitRPS, env.Config.RateLimitBurst)
		middleware = append(middleware, httptransport.RateLimit(limiter, logger))
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Persons:      httptransport.NewPersonHandler(env.Service, logger),
		Appointments: httptransport.NewAppointmentHandler(env.Service, logger),
		Calendar:     httptransport.NewCalendarHandler(env.Service, env.Config.CalendarName, logger),
		Middleware:   middleware,
	})
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("tutorrec API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
