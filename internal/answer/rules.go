package answer

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spigell/easy-applier/internal/form"
	"github.com/spigell/easy-applier/internal/profile"
	"github.com/spigell/easy-applier/internal/utils"
)

// DateLayout is how date questions are filled.
const DateLayout = "01/02/06"

var (
	protectedCategory = []string{
		"aboriginal", "native", "indigenous", "tribe", "first nations",
		"native american", "native hawaiian", "inuit", "metis", "maori",
		"aborigine", "ancestral", "native peoples", "original people",
		"first people", "gender", "race", "disability", "latino", "torres",
		"do you identify", "veteran", "ethnicity",
	}
	declineOption = []string{"prefer", "decline", "don't", "specified", "none", "no"}
)

// DefaultRules returns the built-in rule table in its default order. Earlier
// rules win: "first name" is checked before the generic "name".
func DefaultRules() []Rule {
	rules := choiceRules()
	rules = append(rules, textRules()...)
	return append(rules,
		Rule{
			Name:  "today",
			Kinds: []form.Kind{form.KindDate},
			Match: always,
			Resolve: func(in Input) (form.Value, bool) {
				return form.TextValue(in.Now.Format(DateLayout)), true
			},
		},
		Rule{
			Name:  "acknowledge",
			Kinds: []form.Kind{form.KindCheckbox},
			Match: always,
			Resolve: func(in Input) (form.Value, bool) {
				if len(in.Question.Options) == 0 {
					return form.Value{}, false
				}
				return form.OptionValue(0), true
			},
		},
	)
}

func choiceRules() []Rule {
	return []Rule{
		{
			Name:    "drivers-licence",
			Kinds:   choiceKinds,
			Match:   containing("driver's licence", "driver's license", "drivers licence", "drivers license"),
			Resolve: flag(func(f profile.Flags) bool { return f.DriversLicence }),
		},
		{
			Name:  "protected-category",
			Kinds: choiceKinds,
			Match: containing(protectedCategory...),
			Resolve: func(in Input) (form.Value, bool) {
				return pickAny(in.Question, declineOption...)
			},
		},
		{
			Name:    "assessment",
			Kinds:   choiceKinds,
			Match:   containing("assessment"),
			Resolve: flag(func(f profile.Flags) bool { return f.Assessment }),
		},
		{
			Name:    "clearance",
			Kinds:   choiceKinds,
			Match:   containing("clearance"),
			Resolve: flag(func(f profile.Flags) bool { return f.SecurityClearance }),
		},
		{
			Name:    "north-korea",
			Kinds:   choiceKinds,
			Match:   containing("north korea"),
			Resolve: fixed("no"),
		},
		{
			Name:    "previous-employer",
			Kinds:   choiceKinds,
			Match:   containing("previously employ", "previous employ"),
			Resolve: fixed("no"),
		},
		{
			Name:    "authorized",
			Kinds:   choiceKinds,
			Match:   containing("authorized", "authorised", "legally"),
			Resolve: flag(func(f profile.Flags) bool { return f.LegallyAuthorized }),
		},
		{
			Name:  "citizenship",
			Kinds: choiceKinds,
			Match: containing("citizenship"),
			Resolve: func(in Input) (form.Value, bool) {
				answer := profile.YesNo(in.Profile.Flags.LegallyAuthorized)
				if v, ok := pick(in.Question, answer); ok {
					return v, true
				}
				// "do you require citizenship sponsorship" style options
				if in.Profile.Flags.LegallyAuthorized {
					return pick(in.Question, "no")
				}
				return form.Value{}, false
			},
		},
		{
			Name:    "certified",
			Kinds:   choiceKinds,
			Match:   containing("certified", "certificate", "cpa", "chartered accountant", "qualification"),
			Resolve: flag(func(f profile.Flags) bool { return f.CertifiedProfessional }),
		},
		{
			Name:    "urgent",
			Kinds:   choiceKinds,
			Match:   containing("urgent"),
			Resolve: flag(func(f profile.Flags) bool { return f.UrgentFill }),
		},
		{
			Name:    "commute",
			Kinds:   choiceKinds,
			Match:   containing("commut", "on-site", "hybrid", "onsite"),
			Resolve: flag(func(f profile.Flags) bool { return f.Commute }),
		},
		{
			Name:    "remote",
			Kinds:   choiceKinds,
			Match:   containing("remote"),
			Resolve: flag(func(f profile.Flags) bool { return f.Remote }),
		},
		{
			Name:    "relocate",
			Kinds:   choiceKinds,
			Match:   containing("relocat"),
			Resolve: flag(func(f profile.Flags) bool { return f.Relocate }),
		},
		{
			Name:    "background-check",
			Kinds:   choiceKinds,
			Match:   containing("background check"),
			Resolve: flag(func(f profile.Flags) bool { return f.BackgroundCheck }),
		},
		{
			Name:    "drug-test",
			Kinds:   choiceKinds,
			Match:   containing("drug test"),
			Resolve: flag(func(f profile.Flags) bool { return f.DrugTest }),
		},
		{
			Name:    "residency",
			Kinds:   choiceKinds,
			Match:   containing("currently living", "currently reside", "right to live"),
			Resolve: flag(func(f profile.Flags) bool { return f.Residency }),
		},
		{
			Name:  "level-of-education",
			Kinds: choiceKinds,
			Match: containing("level of education", "degree"),
			Resolve: func(in Input) (form.Value, bool) {
				if utils.ContainsAny(in.Question.Label, in.Profile.Degrees...) {
					return pick(in.Question, "yes")
				}
				return form.Value{}, false
			},
		},
		{
			Name:  "language",
			Kinds: choiceKinds,
			Match: containing("proficiency"),
			Resolve: func(in Input) (form.Value, bool) {
				for _, lang := range slices.Sorted(maps.Keys(in.Profile.Languages)) {
					if strings.Contains(in.Question.Label, lang) {
						return pick(in.Question, in.Profile.Languages[lang])
					}
				}
				return form.Value{}, false
			},
		},
		{
			Name:    "country-code",
			Kinds:   choiceKinds,
			Match:   containing("country code"),
			Resolve: func(in Input) (form.Value, bool) { return pick(in.Question, in.Profile.Personal.PhoneCountryCode) },
		},
		{
			Name:  "above-18",
			Kinds: choiceKinds,
			Match: containing("above 18", "over 18", "18 years"),
			Resolve: func(in Input) (form.Value, bool) {
				if v, ok := pick(in.Question, "yes"); ok {
					return v, true
				}
				if len(in.Question.Options) == 0 {
					return form.Value{}, false
				}
				return form.OptionValue(0), true
			},
		},
		{
			Name:    "experience",
			Kinds:   choiceKinds,
			Match:   containing("experience", "understanding", "familiar", "comfortable", "able to"),
			Resolve: experienceChoice,
		},
		{
			Name:    "data-retention",
			Kinds:   choiceKinds,
			Match:   containing("data retention"),
			Resolve: fixed("no"),
		},
		{
			Name:    "sponsor",
			Kinds:   choiceKinds,
			Match:   containing("sponsor"),
			Resolve: flag(func(f profile.Flags) bool { return f.RequireVisa }),
		},
	}
}

// experienceChoice answers "yes" when the candidate has a nonzero default
// experience or the label names a skill with nonzero years, "no" when the named
// skill has zero years. Anything else is a miss.
func experienceChoice(in Input) (form.Value, bool) {
	if in.Profile.DefaultExperience() > 0 {
		return pick(in.Question, "yes")
	}
	if _, years, ok := in.Profile.SkillIn(in.Question.Label); ok {
		return pick(in.Question, profile.YesNo(years > 0))
	}
	return form.Value{}, false
}

// textRules starts with salary: its keywords share labels with experience,
// name, location and notice questions and must win over them.
func textRules() []Rule {
	return []Rule{
		{
			Name:    "salary",
			Kinds:   textKinds,
			Match:   containing("salary", "compensation", "expectation", "ctc"),
			Resolve: number(func(p *profile.Profile) int { return p.SalaryMinimum }),
		},
		{
			Name:    "experience-years",
			Kinds:   textKinds,
			Match:   containing("experience", "how many years in"),
			Resolve: experienceYears,
		},
		{
			Name:    "years",
			Kinds:   []form.Kind{form.KindNumericText},
			Match:   containing("how many years"),
			Resolve: experienceYears,
		},
		{
			Name:  "gpa",
			Kinds: textKinds,
			Match: containing("grade point average", "gpa"),
			Resolve: func(in Input) (form.Value, bool) {
				if in.Profile.GPA == 0 {
					return form.Value{}, false
				}
				return form.TextValue(formatGPA(in.Profile.GPA)), true
			},
		},
		{
			Name:    "first-name",
			Kinds:   textKinds,
			Match:   func(label string) bool { return strings.Contains(label, "first name") && !strings.Contains(label, "last name") },
			Resolve: text(func(p *profile.Profile) string { return p.Personal.FirstName }),
		},
		{
			Name:    "last-name",
			Kinds:   textKinds,
			Match:   func(label string) bool { return strings.Contains(label, "last name") && !strings.Contains(label, "first name") },
			Resolve: text(func(p *profile.Profile) string { return p.Personal.LastName }),
		},
		{
			Name:    "location",
			Kinds:   textKinds,
			Match:   containing("location"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Location }),
		},
		{
			Name:    "full-name",
			Kinds:   textKinds,
			Match:   containing("name"),
			Resolve: text(func(p *profile.Profile) string { return p.FullName() }),
		},
		{
			Name:    "pronouns",
			Kinds:   textKinds,
			Match:   containing("pronouns"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Pronouns }),
		},
		{
			Name:    "phone",
			Kinds:   textKinds,
			Match:   containing("phone"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Phone }),
		},
		{
			Name:    "linkedin",
			Kinds:   textKinds,
			Match:   containing("linkedin"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.LinkedIn }),
		},
		{
			Name:    "message",
			Kinds:   textKinds,
			Match:   containing("message to hiring", "cover letter"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.MessageToManager }),
		},
		{
			Name:    "website",
			Kinds:   textKinds,
			Match:   containing("website", "github", "portfolio"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Website }),
		},
		{
			Name:    "notice",
			Kinds:   textKinds,
			Match:   containing("notice", "weeks"),
			Resolve: number(func(p *profile.Profile) int { return p.NoticePeriodWeeks }),
		},
		{
			Name:    "email",
			Kinds:   textKinds,
			Match:   containing("email", "e-mail"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Email }),
		},
		{
			Name:    "city",
			Kinds:   textKinds,
			Match:   containing("city"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.City }),
		},
		{
			Name:    "street",
			Kinds:   textKinds,
			Match:   containing("street", "address"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Street }),
		},
		{
			Name:    "zip",
			Kinds:   textKinds,
			Match:   containing("zip", "postal"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.Zip }),
		},
		{
			Name:    "state",
			Kinds:   textKinds,
			Match:   containing("state", "province"),
			Resolve: text(func(p *profile.Profile) string { return p.Personal.State }),
		},
	}
}

// experienceYears answers with the years of the skill named by the label. The
// default experience is used only when the label names no known skill.
func experienceYears(in Input) (form.Value, bool) {
	if _, years, ok := in.Profile.SkillIn(in.Question.Label); ok {
		return form.TextValue(strconv.Itoa(years)), true
	}
	if d := in.Profile.DefaultExperience(); d > 0 {
		return form.TextValue(strconv.Itoa(d)), true
	}
	return form.Value{}, false
}
