package filtering

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/spigell/easy-applier/internal/listing"
)

// Tokenize lower-cases s and splits it into words. '+' and '#' stay part of a
// word so "c++" and "c#" survive.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// containsPhrase reports whether phrase occurs in tokens as a contiguous run
// of whole words.
func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		if slices.Equal(tokens[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}

type titleBlacklistFilter struct {
	toggle
	words   []string
	phrases [][]string
}

// NewTitleBlacklist rejects postings whose title contains a blacklisted word.
// Matching is by whole words: "java" does not match "javascript".
func NewTitleBlacklist(words []string) Filter {
	return &titleBlacklistFilter{words: words}
}

func (f *titleBlacklistFilter) Name() string { return "title_blacklist" }

func (f *titleBlacklistFilter) Stage() Stage { return StageScan }

func (f *titleBlacklistFilter) Validate() error {
	f.phrases = f.phrases[:0]
	for _, word := range f.words {
		if tokens := Tokenize(word); len(tokens) > 0 {
			f.phrases = append(f.phrases, tokens)
		}
	}
	return nil
}

func (f *titleBlacklistFilter) Apply(_ context.Context, posting *listing.Posting) (Verdict, error) {
	title := Tokenize(posting.Title)
	for _, phrase := range f.phrases {
		if containsPhrase(title, phrase) {
			return reject("title contains blacklisted %q", strings.Join(phrase, " ")), nil
		}
	}
	return admit(), nil
}

func (f *titleBlacklistFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Stage:   f.Stage().String(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"words": strings.Join(f.words, ", ")},
	}
}

// exactFilter rejects postings whose field equals a configured value,
// ignoring case and surrounding spaces.
type exactFilter struct {
	toggle
	name   string
	values []string
	field  func(*listing.Posting) string
}

// NewCompanyBlacklist rejects postings of blacklisted companies.
func NewCompanyBlacklist(companies []string) Filter {
	return &exactFilter{
		name:   "company_blacklist",
		values: companies,
		field:  func(p *listing.Posting) string { return p.Company },
	}
}

// NewPosterBlacklist rejects postings published by blacklisted people.
func NewPosterBlacklist(posters []string) Filter {
	return &exactFilter{
		name:   "poster_blacklist",
		values: posters,
		field:  func(p *listing.Posting) string { return p.Poster },
	}
}

func (f *exactFilter) Name() string { return f.name }

func (f *exactFilter) Stage() Stage { return StageScan }

func (f *exactFilter) Validate() error { return nil }

func (f *exactFilter) Apply(_ context.Context, posting *listing.Posting) (Verdict, error) {
	value := strings.TrimSpace(f.field(posting))
	if value == "" {
		return admit(), nil
	}
	for _, blocked := range f.values {
		if strings.EqualFold(value, strings.TrimSpace(blocked)) {
			return reject("%q is blacklisted", value), nil
		}
	}
	return admit(), nil
}

func (f *exactFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Stage:   f.Stage().String(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"entries": strings.Join(f.values, ", ")},
	}
}
