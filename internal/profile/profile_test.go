package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func rawProfile() map[string]any {
	return map[string]any{
		"personal": map[string]any{
			"first-name": "Jane",
			"last-name":  "Doe",
			"email":      "jane@example.com",
		},
		"experience": map[string]any{
			"Python":  "5",
			"Go":      3,
			"default": 0,
		},
		"languages": map[string]any{
			"English": "Native or bilingual",
		},
		"flags": map[string]any{
			"require-visa": false,
			"remote":       true,
		},
		"degrees":        []any{"Bachelor's Degree"},
		"salary-minimum": "90000",
		"gpa":            3.6,
	}
}

func TestLoad(t *testing.T) {
	p, err := Load(rawProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Experience["python"] != 5 {
		t.Fatalf("expected python experience to be normalised, got %+v", p.Experience)
	}
	if p.SalaryMinimum != 90000 {
		t.Fatalf("expected weakly typed salary, got %d", p.SalaryMinimum)
	}
	if p.Languages["english"] != "Native or bilingual" {
		t.Fatalf("unexpected languages: %+v", p.Languages)
	}
	if p.Degrees[0] != "bachelor's degree" {
		t.Fatalf("unexpected degrees: %+v", p.Degrees)
	}
	if !p.Flags.Remote || p.Flags.RequireVisa {
		t.Fatalf("unexpected flags: %+v", p.Flags)
	}
	if got := p.FullName(); got != "Jane Doe" {
		t.Fatalf("unexpected full name: %q", got)
	}
}

func TestLoadValidation(t *testing.T) {
	raw := rawProfile()
	raw["personal"] = map[string]any{"first-name": "Jane", "email": "not-an-email"}

	if _, err := Load(raw); err == nil {
		t.Fatal("expected validation error")
	}

	if _, err := Load(nil); err == nil {
		t.Fatal("expected error for empty profile")
	}
}

func TestSkillIn(t *testing.T) {
	p, err := Load(rawProfile())
	if err != nil {
		t.Fatal(err)
	}

	skill, years, ok := p.SkillIn("how many years of experience do you have with python?")
	if !ok || skill != "python" || years != 5 {
		t.Fatalf("unexpected lookup: %q %d %v", skill, years, ok)
	}

	if _, _, ok := p.SkillIn("how many years of experience do you have with rust?"); ok {
		t.Fatal("expected no skill match")
	}

	for _, s := range p.Skills() {
		if s == DefaultExperienceKey {
			t.Fatal("default entry must not be listed as a skill")
		}
	}
}

func TestSkillInPrefersWholeWordsAndLongestSkill(t *testing.T) {
	p := &Profile{Experience: map[string]int{"java": 1, "javascript": 7, "go": 4, "c++": 2}}

	tests := []struct {
		label string
		skill string
		years int
		ok    bool
	}{
		{"how many years of experience do you have with javascript?", "javascript", 7, true},
		{"how many years of experience do you have with java?", "java", 1, true},
		{"years of c++ experience", "c++", 2, true},
		{"experience with google cloud", "", 0, false},
		{"experience with go and java", "java", 1, true},
	}

	for _, tt := range tests {
		skill, years, ok := p.SkillIn(tt.label)
		if skill != tt.skill || years != tt.years || ok != tt.ok {
			t.Fatalf("%q: expected %q/%d/%v, got %q/%d/%v", tt.label, tt.skill, tt.years, tt.ok, skill, years, ok)
		}
	}
}

func TestSummaryIncludesResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte("Built distributed systems in Go."), 0o600); err != nil {
		t.Fatal(err)
	}

	raw := rawProfile()
	raw["text-resume-file"] = path

	p, err := Load(raw)
	if err != nil {
		t.Fatal(err)
	}

	summary := p.Summary()
	for _, want := range []string{"- Name: Jane Doe", "go (3 years)", "python (5 years)", "english: Native or bilingual", "Built distributed systems in Go."} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary is missing %q:\n%s", want, summary)
		}
	}
}
