package service

import (
	"context"
	"time"

	"github.com/medisync/medisync-backend/pkg/logger"
)

// AlertScheduler invokes the alert gate periodically. The gate itself
// enforces the once-per-day policy, so the interval only bounds how
// soon after the alert hour a check happens.
type AlertScheduler struct {
	gate     *AlertGate
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewAlertScheduler creates a new alert scheduler
func NewAlertScheduler(gate *AlertGate, interval time.Duration, log *logger.Logger) *AlertScheduler {
	return &AlertScheduler{
		gate:     gate,
		interval: interval,
		logger:   log,
	}
}

// Start starts the scheduler in a background goroutine
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		// Run an initial check immediately
		s.runCheck(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				s.runCheck(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *AlertScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *AlertScheduler) runCheck(ctx context.Context) {
	result, err := s.gate.CheckAndNotify(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled alert check failed")
		return
	}

	s.logger.Debug().
		Str("outcome", string(result.Outcome)).
		Str("delivery_id", result.DeliveryID).
		Msg("scheduled alert check completed")
}
