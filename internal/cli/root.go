package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/tutorrec/internal/application"
	"github.com/example/tutorrec/internal/config"
	"github.com/example/tutorrec/internal/logging"
	"github.com/example/tutorrec/internal/persistence/sqlite"
)

// Env is what every subcommand needs: the loaded configuration, the process
// logger and the address book service.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Service *application.AddressBookService
}

// NewRootCommand creates the top-level Cobra command hosting the subcommands.
func NewRootCommand(ctx context.Context, env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tutorrec",
		Short:         "Keep tutoring contacts and their weekly slots free of clashes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newServeCommand(ctx, env),
		newPersonCommand(ctx, env),
		newAppointmentCommand(ctx, env),
		newExportCommand(ctx, env),
		newImportCommand(ctx, env),
	)

	return cmd
}

// ExecuteCommand loads configuration, opens storage and runs the root command.
func ExecuteCommand(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	service := application.NewAddressBookServiceWithLogger(application.NewPersonStore(storage), uuid.NewString, time.Now, logger)
	service.SetCalendarLocation(location)
	if err := service.Load(ctx); err != nil {
		return fmt.Errorf("load address book: %w", err)
	}

	cmd := NewRootCommand(ctx, Env{Config: cfg, Logger: logger, Service: service})
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// Main is a helper used by cmd/tutorrec/main.go to keep wiring contained in one package.
func Main(ctx context.Context) {
	if err := ExecuteCommand(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
