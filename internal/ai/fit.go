package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/utils"
)

//go:embed prompts/fit.md
var fitPrompt string

const (
	fitMaxTokens   = 250
	fitTemperature = 0.2
)

// FitMatcher asks a model whether the candidate should apply to a listing.
type FitMatcher struct {
	completer Completer
	candidate string
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

// NewFitMatcher builds a matcher. A positive minScore turns assessments with a
// lower score into rejections.
func NewFitMatcher(completer Completer, candidate string, minScore float64, logger *zap.Logger, maxLogLength int) *FitMatcher {
	if completer == nil {
		completer = Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &FitMatcher{
		completer: completer,
		candidate: candidate,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (m *FitMatcher) Evaluate(ctx context.Context, title, description string) (*FitAssessment, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("listing has neither title nor description")
	}

	user := fmt.Sprintf("Job: %s\n%s\n\nCandidate:\n%s", title, description, strings.TrimSpace(m.candidate))

	m.logger.Debug("ai fit request",
		zap.String("title", title),
		zap.Int("prompt_length", utf8.RuneCountInString(user)),
		zap.String("prompt_preview", utils.TruncateForLog(user, m.maxLogLen)),
	)

	raw, err := m.completer.Complete(ctx, Request{
		System:      strings.TrimSpace(fitPrompt),
		User:        user,
		MaxTokens:   fitMaxTokens,
		Temperature: fitTemperature,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("ai fit response",
		zap.String("title", title),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, scored, err := parseAssessment(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && scored && assessment.Score < m.minScore {
		m.logger.Debug("set fit to false by score threshold",
			zap.String("title", title),
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}
