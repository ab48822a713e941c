package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var integerPattern = regexp.MustCompile(`-?\d+`)

// FirstInt extracts the first integer embedded in raw.
func FirstInt(raw string) (int, error) {
	match := integerPattern.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no number in %q: %w", raw, ErrParse)
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", match, ErrParse)
	}
	return n, nil
}

// parseAssessment reads a JSON verdict, falling back to the plain text form.
// scored is false when the reply carried no usable score.
func parseAssessment(raw string) (assessment *FitAssessment, scored bool, err error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		assessment, err := parseVerdict(raw)
		return assessment, false, err
	}

	score := coerceFloat(data["score"])
	scored = !math.IsNaN(score)
	if !scored {
		score = 0
	}

	return &FitAssessment{
		Fit:    coerceBool(data["fit"]),
		Score:  score,
		Reason: coerceString(data["reason"]),
	}, scored, nil
}

// parseVerdict accepts the terse "APPLY: reason" / "SKIP: reason" form.
func parseVerdict(raw string) (*FitAssessment, error) {
	trimmed := strings.TrimSpace(raw)
	upper := strings.ToUpper(trimmed)

	var (
		fit  bool
		rest string
	)
	switch {
	case strings.HasPrefix(upper, "APPLY"):
		fit, rest = true, trimmed[len("APPLY"):]
	case strings.HasPrefix(upper, "SKIP"):
		fit, rest = false, trimmed[len("SKIP"):]
	default:
		return nil, fmt.Errorf("unexpected fit verdict %q: %w", trimmed, ErrParse)
	}

	return &FitAssessment{Fit: fit, Reason: strings.TrimSpace(strings.TrimLeft(rest, " :-"))}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes" || lower == "apply"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
