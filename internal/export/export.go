// Package export periodically backs up the interchange document to one or
// more destinations.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/agritag/internal/metrics"
)

// Source produces the document to back up and its dated file name.
type Source interface {
	Export() ([]byte, error)
	ExportFilename() string
}

// Destination is the interface for a backup target (directory, S3, git).
type Destination interface {
	// Name labels the destination in logs and metrics.
	Name() string
	// Write stores the document. name is the dated file name; destinations
	// with a fixed location may ignore it.
	Write(ctx context.Context, name string, data []byte) error
}

// Scheduler runs periodic exports to one or more destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from source to the given
// destinations at the specified interval.
func NewScheduler(source Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic export. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.Once(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Once(ctx)
		}
	}
}

// Once exports to every destination and returns the first failure. A
// failing destination does not stop the others.
func (s *Scheduler) Once(ctx context.Context) error {
	data, err := s.source.Export()
	if err != nil {
		s.logger.Error("export failed", "err", err)
		return fmt.Errorf("export: %w", err)
	}
	name := s.source.ExportFilename()

	var first error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, name, data); err != nil {
			metrics.ExportsTotal.WithLabelValues(dest.Name(), metrics.ResultError).Inc()
			s.logger.Error("export destination write failed", "destination", dest.Name(), "err", err)
			if first == nil {
				first = fmt.Errorf("%s: %w", dest.Name(), err)
			}
			continue
		}
		metrics.ExportsTotal.WithLabelValues(dest.Name(), metrics.ResultOK).Inc()
	}

	s.logger.Info("export completed", "destinations", len(s.destinations), "file", name, "bytes", len(data))
	return first
}
