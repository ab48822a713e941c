// Package filtering decides which scanned postings are worth an application.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/listing"
	"github.com/spigell/easy-applier/internal/logger"
)

// Stage tells when a filter can run.
type Stage int

const (
	// StageScan filters only need the data of a search result tile.
	StageScan Stage = iota
	// StageDetails filters need the loaded job description.
	StageDetails
)

func (s Stage) String() string {
	if s == StageDetails {
		return "details"
	}
	return "scan"
}

// Filter represents a single filtering step applied to a posting.
type Filter interface {
	Name() string
	Stage() Stage
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, posting *listing.Posting) (Verdict, error)
}

// Verdict is the answer of one filter.
type Verdict struct {
	Admitted bool
	Reason   string
}

func admit() Verdict { return Verdict{Admitted: true} }

func reject(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// Decision is the answer of the whole chain for one stage.
type Decision struct {
	Admitted bool
	// Filter is the name of the rejecting filter.
	Filter string
	Reason string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Stage   string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Filtering runs an ordered chain of filters.
type Filtering struct {
	filters []Filter
	logger  *zap.Logger
}

// New builds a chain. Filters are evaluated in the given order within each stage.
func New(filters []Filter, log *zap.Logger) *Filtering {
	if log == nil {
		log = zap.NewNop()
	}
	return &Filtering{filters: filters, logger: log}
}

// Validate prepares every enabled filter.
func (f *Filtering) Validate() error {
	for _, step := range f.filters {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// Filters returns the chain.
func (f *Filtering) Filters() []Filter {
	return f.filters
}

// Scan runs the filters that only need search result data. It has no side
// effects and must run before anything else touches the posting.
func (f *Filtering) Scan(ctx context.Context, posting *listing.Posting) Decision {
	return f.run(ctx, StageScan, posting)
}

// Details runs the filters that need the job description.
func (f *Filtering) Details(ctx context.Context, posting *listing.Posting) Decision {
	return f.run(ctx, StageDetails, posting)
}

func (f *Filtering) run(ctx context.Context, stage Stage, posting *listing.Posting) Decision {
	log := logger.WithListing(f.logger, posting.URL, posting.Company, posting.Title)

	for _, step := range f.filters {
		if step.Stage() != stage || !step.IsEnabled() {
			continue
		}

		verdict, err := step.Apply(ctx, posting)
		if err != nil {
			// a failing filter never blocks a posting
			log.Warn("filter failed, posting is admitted by it",
				zap.String("name", step.Name()),
				zap.Error(err),
			)
			continue
		}

		if !verdict.Admitted {
			log.Info("posting skipped",
				zap.String("filter", step.Name()),
				zap.String("reason", verdict.Reason),
			)
			return Decision{Filter: step.Name(), Reason: verdict.Reason}
		}
	}

	return Decision{Admitted: true}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Stage:   step.Stage().String(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle implements Disable and IsEnabled for embedding.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
