package service

import (
	"context"
	"sync"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/notify"
	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// GateOutcome describes what a gate check did
type GateOutcome string

const (
	// OutcomeProceed means the admission rule let the check continue
	OutcomeProceed GateOutcome = "proceed"
	// OutcomeSuppressed means the check ran before the alert hour
	OutcomeSuppressed GateOutcome = "suppressed"
	// OutcomeAlreadyNotified means today's alert was already handled
	OutcomeAlreadyNotified GateOutcome = "already_notified"
	// OutcomeDeferred means the notification channel is unavailable;
	// the day stays unlocked so a later check can retry
	OutcomeDeferred GateOutcome = "deferred"
	// OutcomeDayLocked means nothing was actionable; the day was
	// recorded without dispatching
	OutcomeDayLocked GateOutcome = "day_locked"
	// OutcomeNotified means an alert was dispatched and the day recorded
	OutcomeNotified GateOutcome = "notified"
)

// CheckResult is the outcome of a single gate check
type CheckResult struct {
	Outcome    GateOutcome `json:"outcome"`
	DeliveryID string      `json:"delivery_id,omitempty"`
}

// Decide is the gate's pure admission rule: the check may proceed only
// at or after the alert hour, and only if no alert was recorded today.
func Decide(lastNotified *time.Time, now time.Time, hourOfDay int) (bool, GateOutcome) {
	if now.Hour() < hourOfDay {
		return false, OutcomeSuppressed
	}
	if lastNotified != nil && sameDay(*lastNotified, now) {
		return false, OutcomeAlreadyNotified
	}
	return true, OutcomeProceed
}

func sameDay(a, b time.Time) bool {
	return midnight(a).Equal(midnight(b.In(a.Location())))
}

// AlertGate enforces the once-per-day alert policy
type AlertGate struct {
	mu               sync.Mutex
	lotRepo          *repository.LotRepository
	stateRepo        *repository.AlertStateRepository
	dispatcher       notify.Dispatcher
	logger           *logger.Logger
	hourOfDay        int
	expiryWindowDays int
	now              func() time.Time
}

// NewAlertGate creates a new alert gate
func NewAlertGate(
	lotRepo *repository.LotRepository,
	stateRepo *repository.AlertStateRepository,
	dispatcher notify.Dispatcher,
	hourOfDay int,
	expiryWindowDays int,
	log *logger.Logger,
) *AlertGate {
	if expiryWindowDays <= 0 {
		expiryWindowDays = DefaultExpiryWindowDays
	}

	return &AlertGate{
		lotRepo:          lotRepo,
		stateRepo:        stateRepo,
		dispatcher:       dispatcher,
		logger:           log,
		hourOfDay:        hourOfDay,
		expiryWindowDays: expiryWindowDays,
		now:              time.Now,
	}
}

// WithClock overrides the gate's time source
func (g *AlertGate) WithClock(now func() time.Time) *AlertGate {
	g.now = now
	return g
}

// CheckAndNotify runs one gate check. On a qualifying check it scans
// the inventory, dispatches at most one consolidated alert, and locks
// the day. The day is locked even when the dispatch fails or nothing
// was actionable; only a missing notification channel leaves the day
// unlocked so a later check can retry.
//
// The scheduler and the HTTP check endpoint can fire at the same time,
// so the whole read-decide-write sequence runs under the gate's mutex:
// the second check must observe the first check's recorded day.
func (g *AlertGate) CheckAndNotify(ctx context.Context) (*CheckResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	lastNotified, err := g.stateRepo.GetLastNotified(ctx)
	if err != nil {
		return nil, err
	}

	proceed, outcome := Decide(lastNotified, now, g.hourOfDay)
	if !proceed {
		g.logger.Debug().Str("outcome", string(outcome)).Msg("alert check skipped")
		return &CheckResult{Outcome: outcome}, nil
	}

	if !g.dispatcher.RequestPermission(ctx) {
		g.logger.Warn().Msg("notification channel unavailable, deferring alert check")
		return &CheckResult{Outcome: OutcomeDeferred}, nil
	}

	lots, err := g.lotRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	summary := Summarize(lots, now, g.expiryWindowDays)

	today := midnight(now)

	if len(summary.Low) == 0 && len(summary.Expiring) == 0 && len(summary.Expired) == 0 {
		if err := g.stateRepo.SetLastNotified(ctx, today); err != nil {
			return nil, err
		}
		g.logger.Info().Msg("no actionable lots, day locked without alert")
		return &CheckResult{Outcome: OutcomeDayLocked}, nil
	}

	notification := Compose(summary.Low, summary.Expiring, summary.Expired)

	deliveryID, sendErr := g.dispatcher.Send(ctx, notification)
	if sendErr != nil {
		// Delivery failures do not unlock the day: retrying a
		// misconfigured channel every check would storm the platform.
		g.logger.Error().Err(sendErr).Msg("alert dispatch failed")
		deliveryID = ""
	}

	if err := g.stateRepo.SetLastNotified(ctx, today); err != nil {
		return nil, err
	}

	return &CheckResult{Outcome: OutcomeNotified, DeliveryID: deliveryID}, nil
}
