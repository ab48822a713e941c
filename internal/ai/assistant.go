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

var (
	//go:embed prompts/text.md
	textPrompt string
	//go:embed prompts/numeric.md
	numericPrompt string
	//go:embed prompts/choice.md
	choicePrompt string
	//go:embed prompts/question.md
	questionTemplate string
)

const (
	answerMaxTokens   = 100
	answerTemperature = 0.7

	defaultMaxLogLength = 200
)

// Assistant answers application questions on behalf of the candidate.
type Assistant struct {
	completer Completer
	candidate string
	logger    *zap.Logger
	maxLogLen int
}

// NewAssistant builds an assistant. candidate is the profile summary embedded
// into every prompt.
func NewAssistant(completer Completer, candidate string, logger *zap.Logger, maxLogLength int) *Assistant {
	if completer == nil {
		completer = Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Assistant{
		completer: completer,
		candidate: candidate,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// AnswerText returns a free-form answer.
func (a *Assistant) AnswerText(ctx context.Context, question string) (string, error) {
	raw, err := a.ask(ctx, textPrompt, a.userPrompt(question, nil))
	if err != nil {
		return "", err
	}
	answer := strings.Trim(strings.TrimSpace(raw), `"`)
	if answer == "" {
		return "", fmt.Errorf("empty answer: %w", ErrParse)
	}
	return answer, nil
}

// AnswerNumber returns the first integer found in the reply.
func (a *Assistant) AnswerNumber(ctx context.Context, question string) (int, error) {
	raw, err := a.ask(ctx, numericPrompt, a.userPrompt(question, nil))
	if err != nil {
		return 0, err
	}
	return FirstInt(raw)
}

// AnswerChoice returns the index of the selected option. Indexes outside of
// options are reported as ErrParse.
func (a *Assistant) AnswerChoice(ctx context.Context, question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to choose from: %w", ErrParse)
	}

	raw, err := a.ask(ctx, choicePrompt, a.userPrompt(question, options))
	if err != nil {
		return 0, err
	}

	idx, err := FirstInt(raw)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("option index %d out of range [0,%d): %w", idx, len(options), ErrParse)
	}
	return idx, nil
}

func (a *Assistant) userPrompt(question string, options []string) string {
	prompt := strings.ReplaceAll(questionTemplate, "{{CANDIDATE}}", strings.TrimSpace(a.candidate))
	prompt = strings.ReplaceAll(prompt, "{{QUESTION}}", question)

	if len(options) > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimSpace(prompt))
		b.WriteString("\n\nSelect the most appropriate answer by providing its index number from these options:\n")
		for i, option := range options {
			fmt.Fprintf(&b, "%d: %s\n", i, option)
		}
		return b.String()
	}
	return prompt
}

func (a *Assistant) ask(ctx context.Context, system, user string) (string, error) {
	a.logger.Debug("ai answer request",
		zap.Int("prompt_length", utf8.RuneCountInString(user)),
		zap.String("prompt_preview", utils.TruncateForLog(user, a.maxLogLen)),
	)

	raw, err := a.completer.Complete(ctx, Request{
		System:      strings.TrimSpace(system),
		User:        user,
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", err
	}

	a.logger.Debug("ai answer response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)
	return raw, nil
}
