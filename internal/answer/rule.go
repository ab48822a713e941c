package answer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/easy-applier/internal/form"
	"github.com/spigell/easy-applier/internal/profile"
	"github.com/spigell/easy-applier/internal/utils"
)

// Input is what a rule sees: the question, the read-only profile and the
// clock of the current resolution.
type Input struct {
	Question *form.Question
	Profile  *profile.Profile
	Now      time.Time
}

// Rule maps a label predicate to a profile-backed answer. Resolve may still
// report a miss, for example when the keyword it derives matches no option.
type Rule struct {
	Name    string
	Kinds   []form.Kind
	Match   func(label string) bool
	Resolve func(in Input) (form.Value, bool)
}

func (r Rule) applies(q *form.Question) bool {
	return slices.Contains(r.Kinds, q.Kind) && r.Match(q.Label)
}

// Arrange returns a copy of rules with the named rules moved to the front in
// the given order and the disabled ones removed.
func Arrange(rules []Rule, order, disabled []string) ([]Rule, error) {
	known := make(map[string]Rule, len(rules))
	for _, r := range rules {
		known[r.Name] = r
	}

	drop := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("disabled rule %q is unknown", name)
		}
		drop[name] = true
	}

	arranged := make([]Rule, 0, len(rules))
	placed := make(map[string]bool, len(order))
	for _, name := range order {
		r, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("ordered rule %q is unknown", name)
		}
		if placed[name] || drop[name] {
			continue
		}
		placed[name] = true
		arranged = append(arranged, r)
	}

	for _, r := range rules {
		if placed[r.Name] || drop[r.Name] {
			continue
		}
		arranged = append(arranged, r)
	}
	return arranged, nil
}

// Names lists rule names in evaluation order.
func Names(rules []Rule) []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	return names
}

var (
	choiceKinds = []form.Kind{form.KindSingleChoice, form.KindDropdown}
	textKinds   = []form.Kind{form.KindFreeText, form.KindNumericText}
)

func containing(keywords ...string) func(string) bool {
	return func(label string) bool {
		return utils.ContainsAny(label, keywords...)
	}
}

func always(string) bool { return true }

// pick selects the first option whose text contains keyword.
func pick(q *form.Question, keyword string) (form.Value, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return form.Value{}, false
	}
	for _, o := range q.Options {
		if strings.Contains(strings.ToLower(o.Text), keyword) {
			return form.OptionValue(o.Index), true
		}
	}
	return form.Value{}, false
}

// pickAny selects the first option containing any of the keywords.
func pickAny(q *form.Question, keywords ...string) (form.Value, bool) {
	for _, o := range q.Options {
		if utils.ContainsAny(strings.ToLower(o.Text), keywords...) {
			return form.OptionValue(o.Index), true
		}
	}
	return form.Value{}, false
}

func fixed(keyword string) func(Input) (form.Value, bool) {
	return func(in Input) (form.Value, bool) {
		return pick(in.Question, keyword)
	}
}

func flag(get func(profile.Flags) bool) func(Input) (form.Value, bool) {
	return func(in Input) (form.Value, bool) {
		return pick(in.Question, profile.YesNo(get(in.Profile.Flags)))
	}
}

func text(get func(*profile.Profile) string) func(Input) (form.Value, bool) {
	return func(in Input) (form.Value, bool) {
		v := strings.TrimSpace(get(in.Profile))
		if v == "" {
			return form.Value{}, false
		}
		return form.TextValue(v), true
	}
}

func number(get func(*profile.Profile) int) func(Input) (form.Value, bool) {
	return func(in Input) (form.Value, bool) {
		return form.NumberValue(get(in.Profile)), true
	}
}

func formatGPA(gpa float64) string {
	return strconv.FormatFloat(gpa, 'f', -1, 64)
}
