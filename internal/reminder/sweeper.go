package reminder

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"absher/internal/platform/metrics"
)

const defaultSweepConcurrency = 8

// Sweeper drives periodic reminder sweeps over every active session. It
// runs outside any request-handling goroutine; sweep failures are logged
// and never propagated to a caller.
type Sweeper struct {
	scanner     *Scanner
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewSweeper constructs a Sweeper. Concurrency values below one fall back
// to the default.
func NewSweeper(scanner *Scanner, logger *slog.Logger, m *metrics.Metrics, concurrency int) *Sweeper {
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}
	return &Sweeper{
		scanner:     scanner,
		logger:      logger,
		metrics:     m,
		concurrency: concurrency,
	}
}

// Start runs sweeps on a fixed interval until the context is cancelled.
// One sweep runs immediately at startup.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "reminder sweeper started",
		"interval", interval.String(),
		"concurrency", s.concurrency,
	)

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reminder sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps every active session with bounded parallelism. Sessions
// are independent: one session's failure is logged and does not stop the
// sweep. Per-session serialization against on-demand scans is handled by
// the scanner's session locks.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()

	ids, err := s.scanner.sessions.ListIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "sweep failed to list sessions", "error", err.Error())
		return
	}
	if len(ids) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := s.scanner.ScanSession(gctx, id); err != nil {
				s.logger.ErrorContext(gctx, "session scan failed",
					"session_id", id.String(),
					"error", err.Error(),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.ObserveSweep(time.Since(start))
	}
	s.logger.InfoContext(ctx, "reminder sweep completed",
		"sessions", len(ids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
