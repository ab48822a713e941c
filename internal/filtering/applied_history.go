package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/listing"
)

const forceFlagSetMsg = "force flag is set"

// History gives access to postings applied to in previous runs.
type History interface {
	AppliedURLs() (map[string]struct{}, error)
}

type AppliedHistoryDeps struct {
	History History
	Logger  *zap.Logger
}

type AppliedHistoryConfig struct {
	Ignore bool
}

type appliedHistoryFilter struct {
	toggle
	deps    *AppliedHistoryDeps
	ignore  bool
	applied map[string]struct{}
}

// NewAppliedHistory creates a filter that removes postings found in the
// success log of previous runs.
func NewAppliedHistory(cfg *AppliedHistoryConfig, deps *AppliedHistoryDeps) Filter {
	ignore := false
	if cfg != nil {
		ignore = cfg.Ignore
	}

	return &appliedHistoryFilter{
		deps:   deps,
		ignore: ignore,
	}
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Stage() Stage { return StageScan }

func (f *appliedHistoryFilter) Validate() error {
	if f.ignore {
		if f.deps != nil && f.deps.Logger != nil {
			f.deps.Logger.Info("ignoring already applied postings", zap.String("reason", forceFlagSetMsg))
		}
		return nil
	}

	if f.deps == nil || f.deps.History == nil {
		return fmt.Errorf("application history is required")
	}

	applied, err := f.deps.History.AppliedURLs()
	if err != nil {
		return fmt.Errorf("load application history: %w", err)
	}
	f.applied = applied

	if f.deps.Logger != nil {
		f.deps.Logger.Info("loaded application history", zap.Int("applied", len(applied)))
	}
	return nil
}

func (f *appliedHistoryFilter) Apply(_ context.Context, posting *listing.Posting) (Verdict, error) {
	if f.ignore {
		return admit(), nil
	}
	if _, ok := f.applied[listing.CanonicalURL(posting.URL)]; ok {
		return reject("already applied in a previous run"), nil
	}
	return admit(), nil
}

func (f *appliedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_applied": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Stage: f.Stage().String(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
