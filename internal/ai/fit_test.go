package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFitMatcherEvaluate(t *testing.T) {
	stub := &stubCompleter{response: "```json\n{\"fit\": true, \"score\": 0.9, \"reason\": \"Matches skills\"}\n```"}
	matcher := NewFitMatcher(stub, "- Skills: go (5 years)", 0.5, nil, 0)

	assessment, err := matcher.Evaluate(context.Background(), "Go Developer", "We need Go.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !assessment.Fit || assessment.Score != 0.9 || assessment.Reason != "Matches skills" {
		t.Fatalf("unexpected assessment %+v", assessment)
	}
	if assessment.Raw == "" {
		t.Fatalf("expected raw response to be kept")
	}

	req := stub.requests[0]
	if !strings.Contains(req.User, "Job: Go Developer\nWe need Go.") || !strings.Contains(req.User, "go (5 years)") {
		t.Fatalf("unexpected user prompt: %s", req.User)
	}
	if req.Temperature != fitTemperature {
		t.Fatalf("unexpected temperature %v", req.Temperature)
	}
}

func TestFitMatcherScoreThreshold(t *testing.T) {
	stub := &stubCompleter{response: `{"fit": "yes", "score": "0.3"}`}
	matcher := NewFitMatcher(stub, "", 0.5, nil, 0)

	assessment, err := matcher.Evaluate(context.Background(), "Go Developer", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Fit {
		t.Fatalf("expected fit to be reset by threshold")
	}
}

func TestFitMatcherPlainVerdict(t *testing.T) {
	tests := []struct {
		response string
		fit      bool
		reason   string
	}{
		{response: "APPLY", fit: true},
		{response: "SKIP: role is clearly more senior", fit: false, reason: "role is clearly more senior"},
		{response: "apply - good match", fit: true, reason: "good match"},
	}

	for _, tt := range tests {
		matcher := NewFitMatcher(&stubCompleter{response: tt.response}, "", 0.5, nil, 0)
		assessment, err := matcher.Evaluate(context.Background(), "Engineer", "desc")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.response, err)
		}
		if assessment.Fit != tt.fit || assessment.Reason != tt.reason {
			t.Fatalf("%q: unexpected assessment %+v", tt.response, assessment)
		}
	}
}

func TestFitMatcherErrors(t *testing.T) {
	matcher := NewFitMatcher(&stubCompleter{response: "maybe"}, "", 0, nil, 0)
	if _, err := matcher.Evaluate(context.Background(), "Engineer", "desc"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	matcher = NewFitMatcher(&stubCompleter{err: ErrUnavailable}, "", 0, nil, 0)
	if _, err := matcher.Evaluate(context.Background(), "Engineer", "desc"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
