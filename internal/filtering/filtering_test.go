package filtering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/easy-applier/internal/ai"
	"github.com/spigell/easy-applier/internal/listing"
)

type stubSeen map[string]bool

func (s stubSeen) Seen(url string) bool { return s[url] }

type stubHistory struct {
	urls map[string]struct{}
	err  error
}

func (s stubHistory) AppliedURLs() (map[string]struct{}, error) { return s.urls, s.err }

type stubMatcher struct {
	assessment *ai.FitAssessment
	err        error
	calls      int
}

func (s *stubMatcher) Evaluate(context.Context, string, string) (*ai.FitAssessment, error) {
	s.calls++
	return s.assessment, s.err
}

type failingFilter struct{ toggle }

func (f *failingFilter) Name() string    { return "failing" }
func (f *failingFilter) Stage() Stage    { return StageScan }
func (f *failingFilter) Validate() error { return nil }
func (f *failingFilter) Apply(context.Context, *listing.Posting) (Verdict, error) {
	return Verdict{}, errors.New("boom")
}

func posting(title, company string) *listing.Posting {
	return &listing.Posting{
		URL:     "https://www.linkedin.com/jobs/view/1",
		Title:   title,
		Company: company,
	}
}

func newChain(t *testing.T, filters ...Filter) *Filtering {
	t.Helper()
	chain := New(filters, zap.NewNop())
	if err := chain.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return chain
}

func TestTitleBlacklistMatchesWholeWords(t *testing.T) {
	chain := newChain(t, NewTitleBlacklist([]string{"java", "team lead", "c++"}))

	tests := []struct {
		title    string
		admitted bool
	}{
		{title: "Senior JavaScript Developer", admitted: true},
		{title: "Senior Java Developer", admitted: false},
		{title: "Java/Kotlin engineer", admitted: false},
		{title: "Team Lead, Platform", admitted: false},
		{title: "Lead of the team", admitted: true},
		{title: "C++ developer", admitted: false},
		{title: "C developer", admitted: true},
	}
	for _, tt := range tests {
		d := chain.Scan(context.Background(), posting(tt.title, "Acme"))
		if d.Admitted != tt.admitted {
			t.Fatalf("%q: expected admitted=%v, got %+v", tt.title, tt.admitted, d)
		}
		if !d.Admitted && d.Filter != "title_blacklist" {
			t.Fatalf("%q: unexpected rejecting filter %q", tt.title, d.Filter)
		}
	}
}

func TestCompanyBlacklistIsCaseInsensitiveExact(t *testing.T) {
	chain := newChain(t, NewCompanyBlacklist([]string{"Acme Corp"}))

	if d := chain.Scan(context.Background(), posting("Go developer", "acme corp")); d.Admitted {
		t.Fatal("expected acme corp to be rejected")
	}
	if d := chain.Scan(context.Background(), posting("Go developer", "Acme Corporation")); !d.Admitted {
		t.Fatalf("expected partial match to be admitted, got %+v", d)
	}
}

func TestPosterBlacklist(t *testing.T) {
	chain := newChain(t, NewPosterBlacklist([]string{"John Recruiter"}))

	p := posting("Go developer", "Acme")
	if d := chain.Scan(context.Background(), p); !d.Admitted {
		t.Fatalf("posting without poster must be admitted, got %+v", d)
	}
	p.Poster = " john recruiter "
	if d := chain.Scan(context.Background(), p); d.Admitted || d.Filter != "poster_blacklist" {
		t.Fatalf("expected poster rejection, got %+v", d)
	}
}

func TestSeenFilterRunsFirst(t *testing.T) {
	p := posting("Java developer", "Acme")
	chain := newChain(t,
		NewSeen(stubSeen{p.URL: true}),
		NewTitleBlacklist([]string{"java"}),
	)

	d := chain.Scan(context.Background(), p)
	if d.Admitted || d.Filter != "seen" {
		t.Fatalf("expected seen rejection, got %+v", d)
	}
}

func TestFilterErrorAdmits(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	chain := New([]Filter{&failingFilter{}}, zap.New(core))

	if d := chain.Scan(context.Background(), posting("Go developer", "Acme")); !d.Admitted {
		t.Fatalf("expected admission on filter error, got %+v", d)
	}
	if logs.FilterMessage("filter failed, posting is admitted by it").Len() != 1 {
		t.Fatal("expected a warning about the failed filter")
	}
}

func TestDisabledFilterIsSkipped(t *testing.T) {
	filters := []Filter{NewCompanyBlacklist([]string{"Acme"})}
	DisableByName(filters, "company_blacklist", "testing")
	chain := newChain(t, filters...)

	if d := chain.Scan(context.Background(), posting("Go developer", "Acme")); !d.Admitted {
		t.Fatalf("disabled filter must not reject, got %+v", d)
	}

	statuses := Describe(filters)
	if len(statuses) != 1 || statuses[0].Enabled || statuses[0].Reason != "testing" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestAppliedHistory(t *testing.T) {
	history := stubHistory{urls: map[string]struct{}{"https://www.linkedin.com/jobs/view/1": {}}}

	chain := newChain(t, NewAppliedHistory(nil, &AppliedHistoryDeps{History: history}))
	p := posting("Go developer", "Acme")
	p.URL = "https://www.linkedin.com/jobs/view/1/?refId=abc"
	if d := chain.Scan(context.Background(), p); d.Admitted {
		t.Fatal("expected previously applied posting to be rejected")
	}

	ignored := newChain(t, NewAppliedHistory(&AppliedHistoryConfig{Ignore: true}, &AppliedHistoryDeps{History: history}))
	if d := ignored.Scan(context.Background(), p); !d.Admitted {
		t.Fatalf("expected posting to pass with ignore flag, got %+v", d)
	}

	broken := New([]Filter{NewAppliedHistory(nil, &AppliedHistoryDeps{History: stubHistory{err: errors.New("io")}})}, nil)
	if err := broken.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := posting("Go developer", "Acme")
	if err := listing.AppendToFile(path, listing.ExcludeActorUser, "", excluded); err != nil {
		t.Fatalf("append: %v", err)
	}

	chain := newChain(t, NewExcludeFile(path))
	if d := chain.Scan(context.Background(), excluded); d.Admitted || d.Filter != "exclude_file" {
		t.Fatalf("expected exclude file rejection, got %+v", d)
	}

	other := posting("Go developer", "Acme")
	other.URL = "https://www.linkedin.com/jobs/view/2"
	if d := chain.Scan(context.Background(), other); !d.Admitted {
		t.Fatalf("expected other posting to pass, got %+v", d)
	}
}

func TestApplyMethod(t *testing.T) {
	chain := newChain(t, NewApplyMethod())

	p := posting("Go developer", "Acme")
	for method, admitted := range map[string]bool{"": true, "Easy Apply": true, "Apply": false} {
		p.ApplyMethod = method
		if d := chain.Scan(context.Background(), p); d.Admitted != admitted {
			t.Fatalf("method %q: expected admitted=%v, got %+v", method, admitted, d)
		}
	}
}

func TestStagesAreSeparate(t *testing.T) {
	matcher := &stubMatcher{assessment: &ai.FitAssessment{Fit: false, Score: 0.1, Reason: "no go"}}
	chain := newChain(t,
		NewTitleBlacklist([]string{"java"}),
		NewAIFit(&AIFitFilterConfig{Enabled: true}, &AIFitFilterDeps{Matcher: matcher}),
	)

	p := posting("Go developer", "Acme")
	if d := chain.Scan(context.Background(), p); !d.Admitted {
		t.Fatalf("scan must not run details filters, got %+v", d)
	}
	if matcher.calls != 0 {
		t.Fatalf("matcher called during scan")
	}
	if d := chain.Details(context.Background(), p); d.Admitted || d.Filter != "ai_fit" {
		t.Fatalf("expected ai rejection, got %+v", d)
	}
}

func TestAIFitFailsOpen(t *testing.T) {
	matcher := &stubMatcher{err: ai.ErrUnavailable}
	chain := newChain(t, NewAIFit(&AIFitFilterConfig{Enabled: true}, &AIFitFilterDeps{Matcher: matcher}))

	if d := chain.Details(context.Background(), posting("Go developer", "Acme")); !d.Admitted {
		t.Fatalf("expected fail-open admission, got %+v", d)
	}
	if matcher.calls != 1 {
		t.Fatalf("expected one evaluation, got %d", matcher.calls)
	}
}

func TestAIFitRejectionIsWrittenToExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	matcher := &stubMatcher{assessment: &ai.FitAssessment{Fit: false, Score: 0.2, Reason: "needs java"}}
	chain := newChain(t, NewAIFit(&AIFitFilterConfig{Enabled: true}, &AIFitFilterDeps{Matcher: matcher, ExcludeFile: path}))

	p := posting("Go developer", "Acme")
	if d := chain.Details(context.Background(), p); d.Admitted {
		t.Fatal("expected rejection")
	}

	excluded, err := listing.LoadExcluded(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(excluded.Items) != 1 || excluded.Items[0].Actor != listing.ExcludeActorAI || excluded.Items[0].Reason != "needs java" {
		t.Fatalf("unexpected exclude file content %+v", excluded.Items)
	}
}

func TestAIFitDisabledByConfig(t *testing.T) {
	f := NewAIFit(&AIFitFilterConfig{}, &AIFitFilterDeps{})
	if f.IsEnabled() {
		t.Fatal("ai filter must be disabled when not enabled in config")
	}
	if err := New([]Filter{f}, nil).Validate(); err != nil {
		t.Fatalf("disabled filter must not be validated: %v", err)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Senior C#/.NET Engineer (Remote)")
	want := []string{"senior", "c#", "net", "engineer", "remote"}
	if len(got) != len(want) {
		t.Fatalf("unexpected tokens %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected tokens %v", got)
		}
	}
}
