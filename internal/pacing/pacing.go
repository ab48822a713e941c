// Package pacing spaces out browser actions. The run driver and the apply
// state machine call a Scheduler at fixed points and never sleep themselves.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/utils"
)

// Scheduler is the injectable pacing policy.
type Scheduler interface {
	// AfterAction runs between two small actions such as clicks.
	AfterAction(ctx context.Context) error
	// BeforeStep runs before the primary action of a form step.
	BeforeStep(ctx context.Context) error
	// AfterStep runs after the primary action of a form step.
	AfterStep(ctx context.Context) error
	// AfterPage runs after a search result page has been processed.
	AfterPage(ctx context.Context, pageStarted time.Time) error
	// AfterSegment runs after a (position, location) segment finished.
	AfterSegment(ctx context.Context) error
}

// Range is an inclusive duration interval.
type Range struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

func (r Range) pick(rnd func(int64) int64) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rnd(int64(r.Max-r.Min)+1))
}

// Config tunes the random policy.
type Config struct {
	Action Range `mapstructure:"action"`
	// BeforeStep and AfterStep surround the click on a step's primary action.
	BeforeStep Range `mapstructure:"before-step"`
	AfterStep  Range `mapstructure:"after-step"`
	// MinPage is the minimum time spent on one search result page.
	MinPage time.Duration `mapstructure:"min-page"`
	// CooldownEvery pages a long break is taken.
	CooldownEvery   int   `mapstructure:"cooldown-every"`
	PageCooldown    Range `mapstructure:"page-cooldown"`
	SegmentCooldown Range `mapstructure:"segment-cooldown"`
}

// DefaultConfig returns the default pacing.
func DefaultConfig() Config {
	return Config{
		Action:          Range{Min: 1500 * time.Millisecond, Max: 3500 * time.Millisecond},
		BeforeStep:      Range{Min: 1500 * time.Millisecond, Max: 2500 * time.Millisecond},
		AfterStep:       Range{Min: 3 * time.Second, Max: 5 * time.Second},
		MinPage:         2 * time.Minute,
		CooldownEvery:   5,
		PageCooldown:    Range{Min: 3 * time.Minute, Max: 5 * time.Minute},
		SegmentCooldown: Range{Min: 8 * time.Minute, Max: 15 * time.Minute},
	}
}

// Random waits random intervals taken from its Config.
type Random struct {
	cfg    Config
	logger *zap.Logger
	wait   func(ctx context.Context, d time.Duration) error
	now    func() time.Time
	rnd    func(n int64) int64

	pages int
}

// NewRandom creates the random policy.
func NewRandom(cfg Config, log *zap.Logger) *Random {
	if log == nil {
		log = zap.NewNop()
	}
	return &Random{
		cfg:    cfg,
		logger: log,
		wait:   utils.WaitFor,
		now:    time.Now,
		rnd:    rand.Int64N,
	}
}

func (r *Random) AfterAction(ctx context.Context) error {
	return r.wait(ctx, r.cfg.Action.pick(r.rnd))
}

func (r *Random) BeforeStep(ctx context.Context) error {
	return r.wait(ctx, r.cfg.BeforeStep.pick(r.rnd))
}

func (r *Random) AfterStep(ctx context.Context) error {
	return r.wait(ctx, r.cfg.AfterStep.pick(r.rnd))
}

// AfterPage keeps every page at least MinPage long and takes a long break
// every CooldownEvery pages.
func (r *Random) AfterPage(ctx context.Context, pageStarted time.Time) error {
	r.pages++

	if left := r.cfg.MinPage - r.now().Sub(pageStarted); left > 0 {
		r.logger.Debug("waiting for the rest of the page time", zap.Duration("left", left))
		if err := r.wait(ctx, left); err != nil {
			return err
		}
	}

	if r.cfg.CooldownEvery > 0 && r.pages%r.cfg.CooldownEvery == 0 {
		d := r.cfg.PageCooldown.pick(r.rnd)
		r.logger.Info("taking a break", zap.Int("pages", r.pages), zap.Duration("duration", d))
		return r.wait(ctx, d)
	}
	return nil
}

func (r *Random) AfterSegment(ctx context.Context) error {
	d := r.cfg.SegmentCooldown.pick(r.rnd)
	r.logger.Info("segment finished, taking a break", zap.Duration("duration", d))
	return r.wait(ctx, d)
}

// None never waits. It only reports cancellation.
type None struct{}

func (None) AfterAction(ctx context.Context) error            { return ctx.Err() }
func (None) BeforeStep(ctx context.Context) error             { return ctx.Err() }
func (None) AfterStep(ctx context.Context) error              { return ctx.Err() }
func (None) AfterPage(ctx context.Context, _ time.Time) error { return ctx.Err() }
func (None) AfterSegment(ctx context.Context) error           { return ctx.Err() }
