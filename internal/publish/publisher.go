// Package publish keeps an iCalendar file on disk in step with the address
// book so calendar clients can subscribe to it.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

// Exporter writes the current timetable as iCalendar data.
type Exporter interface {
	ExportCalendar(ctx context.Context, w io.Writer, name string) error
}

// Publisher writes the calendar feed to a file.
type Publisher struct {
	exporter Exporter
	path     string
	name     string
	logger   *slog.Logger
}

// NewPublisher returns a Publisher writing exporter's feed, titled name, to path.
func NewPublisher(exporter Exporter, path, name string, logger *slog.Logger) (*Publisher, error) {
	if exporter == nil {
		return nil, errors.New("publish: exporter is required")
	}
	if path == "" {
		return nil, errors.New("publish: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		exporter: exporter,
		path:     path,
		name:     name,
		logger:   logger.With("component", "publisher", "path", path),
	}, nil
}

// Publish rewrites the feed. Readers see either the old or the new file,
// never a partial one.
func (p *Publisher) Publish(ctx context.Context) (err error) {
	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+".*")
	if err != nil {
		return fmt.Errorf("publish: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = p.exporter.ExportCalendar(ctx, tmp, p.name); err != nil {
		return fmt.Errorf("publish: export: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("publish: chmod: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("publish: close: %w", err)
	}
	if err = os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("publish: rename: %w", err)
	}

	p.logger.InfoContext(ctx, "calendar published")
	return nil
}

// Run publishes once, then again on every tick of the standard five-field
// cron schedule until ctx is cancelled. Failed runs are logged and retried
// on the next tick.
func (p *Publisher) Run(ctx context.Context, schedule string) error {
	spec, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("publish: invalid schedule %q: %w", schedule, err)
	}

	if err := p.Publish(ctx); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish calendar", "error", err)
	}

	c := cron.New()
	c.Schedule(spec, cron.FuncJob(func() {
		if err := p.Publish(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to publish calendar", "error", err)
		}
	}))
	c.Start()
	p.logger.InfoContext(ctx, "calendar publishing scheduled", "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
