// Package ratelimit implements the three-tier sliding-window limiter
// applied before any agent work begins.
package ratelimit

import (
	"encoding/json"
	"log/slog"
	"time"

	"salespilot/internal/statestore"
)

// Rejection reason codes.
const (
	ReasonMinuteLimit = "minute_limit"
	ReasonHourLimit   = "hour_limit"
	ReasonGlobalLimit = "global_limit"
)

const globalKey = "rl:g:global"

// Config holds the per-tier limits.
type Config struct {
	ActorPerMinute  int
	ActorPerHour    int
	GlobalPerMinute int
	CheckTimeout    time.Duration
}

// Result is the outcome of a limit check. Remaining is a hint: the number
// of requests left in the tier that decided the outcome.
type Result struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Remaining int    `json:"remaining"`
}

// Limiter evaluates sliding windows over the fast store. A nil store
// makes the limiter a no-op that always allows. Any store error or
// timeout fails open: availability of the product takes priority over
// strict limiting when the limiting infrastructure is degraded.
type Limiter struct {
	store statestore.Storage
	cfg   Config
	log   *slog.Logger
	now   func() time.Time
}

// New creates a limiter over the given store.
func New(store statestore.Storage, cfg Config, log *slog.Logger) *Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &Limiter{
		store: store,
		cfg:   cfg,
		log:   log.With("component", "ratelimit"),
		now:   time.Now,
	}
}

type tier struct {
	key    string
	window time.Duration
	limit  int
	reason string
}

// Check evaluates the three tiers in strict order: actor/minute,
// actor/hour, global/minute. The first tier that rejects short-circuits.
func (l *Limiter) Check(actorKey string) Result {
	if l.store == nil {
		return Result{Allowed: true}
	}

	tiers := []tier{
		{"rl:m:" + actorKey, time.Minute, l.cfg.ActorPerMinute, ReasonMinuteLimit},
		{"rl:h:" + actorKey, time.Hour, l.cfg.ActorPerHour, ReasonHourLimit},
		{globalKey, time.Minute, l.cfg.GlobalPerMinute, ReasonGlobalLimit},
	}

	now := l.now()
	counts := make([][]int64, len(tiers))

	for i, t := range tiers {
		stamps, err := l.load(t.key)
		if err != nil {
			l.log.Warn("rate limit check failed open", "key", t.key, "error", err)
			return Result{Allowed: true}
		}

		live := prune(stamps, now.Add(-t.window))
		if len(live) >= t.limit {
			return Result{Allowed: false, Reason: t.reason, Remaining: 0}
		}
		counts[i] = live
	}

	// All tiers passed: record the event in each window. Rejected
	// requests never consume quota.
	remaining := 0
	for i, t := range tiers {
		live := append(counts[i], now.UnixMilli())
		if err := l.save(t.key, live, t.window); err != nil {
			l.log.Warn("rate limit record failed", "key", t.key, "error", err)
		}
		r := t.limit - len(live)
		if i == 0 || r < remaining {
			remaining = r
		}
	}

	return Result{Allowed: true, Remaining: remaining}
}

// load reads the timestamp window for a key, with a timeout.
func (l *Limiter) load(key string) ([]int64, error) {
	raw, err := statestore.GetTimeout(l.store, key, l.cfg.CheckTimeout)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var stamps []int64
	if err := json.Unmarshal(raw, &stamps); err != nil {
		return nil, err
	}
	return stamps, nil
}

func (l *Limiter) save(key string, stamps []int64, window time.Duration) error {
	raw, err := json.Marshal(stamps)
	if err != nil {
		return err
	}
	return statestore.SetTimeout(l.store, key, raw, window, l.cfg.CheckTimeout)
}

// prune drops timestamps that fell out of the sliding window.
func prune(stamps []int64, cutoff time.Time) []int64 {
	cutoffMs := cutoff.UnixMilli()
	live := stamps[:0]
	for _, s := range stamps {
		if s > cutoffMs {
			live = append(live, s)
		}
	}
	return live
}
