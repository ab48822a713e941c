package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/ai"
	"github.com/spigell/easy-applier/internal/listing"
)

type AIFitFilterDeps struct {
	Logger      *zap.Logger
	Matcher     ai.Matcher
	ExcludeFile string
}

type AIFitFilterConfig struct {
	Enabled  bool
	Provider string
	Model    string
}

type aiFitFilter struct {
	toggle
	config *AIFitFilterConfig
	deps   *AIFitFilterDeps
}

// NewAIFit creates the AI-based filtering step. Evaluation errors admit the
// posting: the filter saves applications, it does not guard anything.
func NewAIFit(cfg *AIFitFilterConfig, deps *AIFitFilterDeps) Filter {
	if cfg == nil {
		cfg = &AIFitFilterConfig{}
	}
	f := &aiFitFilter{config: cfg, deps: deps}
	if !cfg.Enabled {
		f.Disable("disabled in config")
	}
	return f
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Stage() Stage { return StageDetails }

func (f *aiFitFilter) Validate() error {
	if f.deps == nil || f.deps.Matcher == nil {
		return fmt.Errorf("ai matcher is required when the ai filter is enabled")
	}
	if f.deps.Logger == nil {
		f.deps.Logger = zap.NewNop()
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, posting *listing.Posting) (Verdict, error) {
	log := f.deps.Logger.With(zap.String("listing_url", posting.URL))

	assessment, err := f.deps.Matcher.Evaluate(ctx, posting.Title, posting.Description)
	if err != nil {
		log.Warn("AI evaluation failed, posting is admitted", zap.Error(err))
		return admit(), nil
	}

	if assessment.Fit {
		log.Info("posting approved by AI",
			zap.Float64("ai_score", assessment.Score),
			zap.String("reason", assessment.Reason),
		)
		return admit(), nil
	}

	if err := f.appendToExcludeFile(posting, assessment.Reason); err != nil {
		log.Warn("failed to append posting to exclude file", zap.Error(err))
	}

	return reject("rejected by AI (score %.2f): %s", assessment.Score, assessment.Reason), nil
}

func (f *aiFitFilter) appendToExcludeFile(posting *listing.Posting, reason string) error {
	path := strings.TrimSpace(f.deps.ExcludeFile)
	if path == "" {
		return nil
	}

	if err := listing.AppendToFile(path, listing.ExcludeActorAI, reason, posting); err != nil {
		return err
	}

	f.deps.Logger.Info("posting appended to exclude file",
		zap.String("listing_url", posting.URL),
		zap.String("exclude_file", path),
	)
	return nil
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config.Provider != "" {
		details["provider"] = f.config.Provider
	}
	if f.config.Model != "" {
		details["model"] = f.config.Model
	}
	return Status{Name: f.Name(), Stage: f.Stage().String(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
