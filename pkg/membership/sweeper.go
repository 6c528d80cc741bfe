package membership

import (
	"context"
	"log/slog"
	"time"
)

// Downgrade reasons recorded by the sweeper. Stored on the record so a
// support request can explain why access was removed.
const (
	ReasonGraceExpired   = "Grace period expired"
	ReasonInactiveStatus = "Subscription not active"
	ReasonNoSubscription = "No subscription on record"
)

// SweepResult reports what a sweep saw and did.
type SweepResult struct {
	TotalPremiumUsers int `json:"totalPremiumUsers"`
	DowngradedUsers   int `json:"downgradedUsers"`
	ActiveUsers       int `json:"activeUsers"`
}

// Sweeper is the periodic batch job that re-scans premium records and
// downgrades the stale ones. It runs concurrently with live webhook writes
// on the same records; last-writer-wins is accepted here because the
// resolver rules are state-driven and a lost sweep write is repaired by the
// next sweep.
type Sweeper struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewSweeper creates a Sweeper over the given store.
func NewSweeper(store Store, log *slog.Logger) *Sweeper {
	if store == nil {
		panic("membership: store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the sweeper's time source. Test hook.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Sweep scans all premium records and downgrades any that match a
// downgrade condition. A failure to persist one record is logged and the
// sweep continues; the record stays premium until the next run.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	recs, err := s.store.ListPremium(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	now := s.now()
	res := SweepResult{TotalPremiumUsers: len(recs)}

	for i := range recs {
		rec := recs[i]
		reason, stale := s.evaluate(&rec, now)
		if !stale {
			res.ActiveUsers++
			continue
		}

		next := Downgrade(now, rec, reason)
		if err := s.store.Save(ctx, &next); err != nil {
			s.log.ErrorContext(ctx, "failed to downgrade stale premium record",
				slog.String("user_id", rec.UserID),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
			res.ActiveUsers++
			continue
		}

		s.log.InfoContext(ctx, "downgraded stale premium record",
			slog.String("user_id", rec.UserID),
			slog.String("reason", reason),
		)
		res.DowngradedUsers++
	}

	return res, nil
}

// evaluate applies the three independent downgrade conditions in order and
// returns the first matching reason.
func (s *Sweeper) evaluate(rec *Record, now time.Time) (string, bool) {
	if rec.GraceExpired(now) {
		return ReasonGraceExpired, true
	}
	if rec.Subscription != nil && rec.Subscription.Status != "" && !IsActiveStatus(rec.Subscription.Status) {
		return ReasonInactiveStatus, true
	}
	if rec.EffectiveSubscriptionID() == "" {
		return ReasonNoSubscription, true
	}
	return "", false
}

// Downgrade returns the record demoted to basic with the given reason.
// Pure, like Resolve; the sweeper and the inactive-status webhook path
// share it so both produce the same shape.
func Downgrade(now time.Time, rec Record, reason string) Record {
	next := rec
	next.MembershipType = TypeBasic
	next.SubscriptionID = ""
	next.Subscription = nil
	next.DowngradeReason = reason
	next.UpdatedAt = now
	if next.CancelledAt == nil {
		next.CancelledAt = &now
	}
	return next
}
