package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recorder struct {
	waits []time.Duration
}

func (r *recorder) wait(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func newTestRandom(cfg Config, now time.Time) (*Random, *recorder) {
	rec := &recorder{}
	r := NewRandom(cfg, nil)
	r.wait = rec.wait
	r.now = func() time.Time { return now }
	r.rnd = func(n int64) int64 { return n - 1 }
	return r, rec
}

func TestRangePick(t *testing.T) {
	r := Range{Min: time.Second, Max: 3 * time.Second}
	if got := r.pick(func(int64) int64 { return 0 }); got != time.Second {
		t.Fatalf("expected min, got %s", got)
	}
	if got := r.pick(func(n int64) int64 { return n - 1 }); got != 3*time.Second {
		t.Fatalf("expected max, got %s", got)
	}
	fixed := Range{Min: 2 * time.Second}
	if got := fixed.pick(func(int64) int64 { panic("must not be called") }); got != 2*time.Second {
		t.Fatalf("expected fixed duration, got %s", got)
	}
}

func TestAfterPageKeepsMinimumAndCoolsDown(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	cfg := Config{
		MinPage:       2 * time.Minute,
		CooldownEvery: 2,
		PageCooldown:  Range{Min: 3 * time.Minute, Max: 3 * time.Minute},
	}
	r, rec := newTestRandom(cfg, now)
	ctx := context.Background()

	if err := r.AfterPage(ctx, now.Add(-30*time.Second)); err != nil {
		t.Fatal(err)
	}
	if len(rec.waits) != 1 || rec.waits[0] != 90*time.Second {
		t.Fatalf("expected the rest of the page time, got %v", rec.waits)
	}

	if err := r.AfterPage(ctx, now.Add(-5*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if len(rec.waits) != 2 || rec.waits[1] != 3*time.Minute {
		t.Fatalf("expected a cool-down on the second page, got %v", rec.waits)
	}
}

func TestStepWaits(t *testing.T) {
	r, rec := newTestRandom(DefaultConfig(), time.Now())
	ctx := context.Background()

	if err := r.BeforeStep(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.AfterStep(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.AfterSegment(ctx); err != nil {
		t.Fatal(err)
	}
	want := []time.Duration{2500 * time.Millisecond, 5 * time.Second, 15 * time.Minute}
	for i, d := range want {
		if rec.waits[i] != d {
			t.Fatalf("wait %d: expected %s, got %s", i, d, rec.waits[i])
		}
	}
}

func TestNoneReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var s Scheduler = None{}
	if err := s.AfterAction(ctx); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	cancel()
	if err := s.AfterPage(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
