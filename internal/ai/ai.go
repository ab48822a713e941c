// Package ai contains the AI capabilities used by the applier: answering
// application questions the profile rules do not cover and judging whether a
// listing is worth applying to.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when no AI backend is configured.
	ErrUnavailable = errors.New("ai backend is unavailable")
	// ErrParse is returned when a model response cannot be interpreted.
	ErrParse = errors.New("cannot parse ai response")
)

// Request is a single prompt exchange.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer sends a prompt to a model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Unavailable is the Completer used when no credentials are configured.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}

// FitAssessment is the verdict on a single listing.
type FitAssessment struct {
	Fit    bool
	Score  float64
	Reason string
	Raw    string
}

// Matcher judges whether a listing fits the candidate.
type Matcher interface {
	Evaluate(ctx context.Context, title, description string) (*FitAssessment, error)
}
