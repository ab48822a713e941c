// Package answer resolves classified form questions into values. Resolution
// is layered: the profile rule table first, then the AI assistant, then fixed
// defaults that always let the form move forward.
package answer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/form"
	"github.com/spigell/easy-applier/internal/logger"
	"github.com/spigell/easy-applier/internal/profile"
)

// Source names the layer that produced an answer.
type Source string

const (
	SourceProfileRule Source = "profile-rule"
	SourceAI          Source = "ai-fallback"
	SourceDefault     Source = "default"
	SourceNone        Source = "unresolved"
)

// TextPlaceholder is the visible but empty default for free text questions.
const TextPlaceholder = " ‏‏‎ "

// Assistant is the AI fallback layer.
type Assistant interface {
	AnswerText(ctx context.Context, question string) (string, error)
	AnswerNumber(ctx context.Context, question string) (int, error)
	AnswerChoice(ctx context.Context, question string, options []string) (int, error)
}

// Attempt describes a question that the rule table could not answer and how
// it was resolved instead.
type Attempt struct {
	Kind   form.Kind
	Label  string
	Source Source
	Value  string
	OK     bool
}

// Diagnostics receives every rule table miss.
type Diagnostics interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Value  form.Value
	Source Source
	// Rule is the name of the profile rule that answered, if any.
	Rule string
}

// Resolved reports whether a value was produced.
func (r Resolution) Resolved() bool {
	return r.Source != SourceNone
}

// Deps holds the optional collaborators of the engine.
type Deps struct {
	Assistant   Assistant
	Diagnostics Diagnostics
	Logger      *zap.Logger
	Now         func() time.Time
}

// Engine resolves questions against a single profile. It never mutates the
// profile and never fails for a well-formed question.
type Engine struct {
	profile     *profile.Profile
	rules       []Rule
	assistant   Assistant
	diagnostics Diagnostics
	logger      *zap.Logger
	now         func() time.Time
}

// NewEngine builds an engine. A nil rule table means DefaultRules.
func NewEngine(p *profile.Profile, rules []Rule, deps Deps) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Engine{
		profile:     p,
		rules:       rules,
		assistant:   deps.Assistant,
		diagnostics: deps.Diagnostics,
		logger:      deps.Logger,
		now:         deps.Now,
	}
}

// Resolve answers q. Layer 1 is the first rule whose kind and label predicate
// match and that produces a value; a matching rule that cannot answer passes
// the question on to the next one. If no rule answers, the AI assistant and
// then the defaults are tried, and the miss is reported to the diagnostics
// sink.
func (e *Engine) Resolve(ctx context.Context, q *form.Question) Resolution {
	log := e.logger.With(
		zap.String(logger.FieldQuestionKind, q.Kind.String()),
		zap.String("question", q.Label),
	)

	if res, ok := e.fromRules(q); ok {
		log.Debug("resolved by profile rule", zap.String("rule", res.Rule), zap.String("value", res.Value.Render(q)))
		return res
	}

	res, ok := e.fromAssistant(ctx, q, log)
	if !ok {
		res = e.fromDefaults(q)
	}

	attempt := Attempt{
		Kind:   q.Kind,
		Label:  q.Label,
		Source: res.Source,
		Value:  res.Value.Render(q),
		OK:     res.Resolved(),
	}
	log.Info("question is not covered by profile rules",
		zap.String(logger.FieldResolutionSource, string(res.Source)),
		zap.String("value", attempt.Value),
	)
	if e.diagnostics != nil {
		if err := e.diagnostics.RecordAttempt(ctx, attempt); err != nil {
			log.Warn("failed to record unprepared question", zap.Error(err))
		}
	}
	return res
}

func (e *Engine) fromRules(q *form.Question) (Resolution, bool) {
	in := Input{Question: q, Profile: e.profile, Now: e.now()}
	for _, rule := range e.rules {
		if !rule.applies(q) {
			continue
		}
		v, ok := rule.Resolve(in)
		if !ok {
			continue
		}
		if v.Option != form.NoOption && (v.Option < 0 || v.Option >= len(q.Options)) {
			continue
		}
		return Resolution{Value: v, Source: SourceProfileRule, Rule: rule.Name}, true
	}
	return Resolution{}, false
}

func (e *Engine) fromAssistant(ctx context.Context, q *form.Question, log *zap.Logger) (Resolution, bool) {
	if e.assistant == nil {
		return Resolution{}, false
	}

	var (
		v   form.Value
		err error
	)
	switch {
	case q.Kind.IsChoice() && len(q.Options) > 0:
		var idx int
		idx, err = e.assistant.AnswerChoice(ctx, q.Label, q.OptionTexts())
		if err == nil && (idx < 0 || idx >= len(q.Options)) {
			log.Debug("assistant picked an option out of range", zap.Int("index", idx))
			return Resolution{}, false
		}
		v = form.OptionValue(idx)
	case q.Kind == form.KindNumericText:
		var n int
		n, err = e.assistant.AnswerNumber(ctx, q.Label)
		v = form.NumberValue(n)
	case q.Kind == form.KindFreeText:
		var s string
		s, err = e.assistant.AnswerText(ctx, q.Label)
		if err == nil && s == "" {
			return Resolution{}, false
		}
		v = form.TextValue(s)
	default:
		return Resolution{}, false
	}

	if err != nil {
		log.Debug("assistant could not answer", zap.Error(err))
		return Resolution{}, false
	}
	return Resolution{Value: v, Source: SourceAI}, true
}

func (e *Engine) fromDefaults(q *form.Question) Resolution {
	switch {
	case q.Kind.IsChoice() && len(q.Options) > 0:
		return Resolution{Value: form.OptionValue(len(q.Options) - 1), Source: SourceDefault}
	case q.Kind == form.KindNumericText:
		return Resolution{Value: form.NumberValue(0), Source: SourceDefault}
	case q.Kind == form.KindFreeText:
		return Resolution{Value: form.TextValue(TextPlaceholder), Source: SourceDefault}
	case q.Kind == form.KindCheckbox && len(q.Options) > 0:
		return Resolution{Value: form.OptionValue(0), Source: SourceDefault}
	case q.Kind == form.KindDate:
		return Resolution{Value: form.TextValue(e.now().Format(DateLayout)), Source: SourceDefault}
	default:
		return Resolution{Value: form.Value{Option: form.NoOption}, Source: SourceNone}
	}
}
