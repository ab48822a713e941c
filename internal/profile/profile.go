// Package profile holds the candidate data used to answer application questions.
package profile

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// DefaultExperienceKey is the catch-all entry of the experience table.
const DefaultExperienceKey = "default"

// Profile is the candidate profile. It is built once per run by Load and must
// be treated as read-only afterwards.
type Profile struct {
	Personal   Personal          `mapstructure:"personal"`
	Experience map[string]int    `mapstructure:"experience"`
	Languages  map[string]string `mapstructure:"languages"`
	Flags      Flags             `mapstructure:"flags"`
	Degrees    []string          `mapstructure:"degrees"`

	SalaryMinimum     int     `mapstructure:"salary-minimum" validate:"gte=0"`
	NoticePeriodWeeks int     `mapstructure:"notice-period-weeks" validate:"gte=0"`
	GPA               float64 `mapstructure:"gpa" validate:"gte=0,lte=10"`

	ResumeFile      string `mapstructure:"resume-file"`
	CoverLetterFile string `mapstructure:"cover-letter-file"`
	TextResumeFile  string `mapstructure:"text-resume-file"`

	resumeText string
}

// Personal contains the contact details of the candidate.
type Personal struct {
	FirstName        string `mapstructure:"first-name" validate:"required"`
	LastName         string `mapstructure:"last-name" validate:"required"`
	Pronouns         string `mapstructure:"pronouns"`
	Email            string `mapstructure:"email" validate:"omitempty,email"`
	Phone            string `mapstructure:"phone"`
	PhoneCountryCode string `mapstructure:"phone-country-code"`
	Street           string `mapstructure:"street"`
	City             string `mapstructure:"city"`
	State            string `mapstructure:"state"`
	Zip              string `mapstructure:"zip"`
	Location         string `mapstructure:"location"`
	LinkedIn         string `mapstructure:"linkedin" validate:"omitempty,url"`
	Website          string `mapstructure:"website" validate:"omitempty,url"`
	MessageToManager string `mapstructure:"message-to-manager"`
	CurrentRole      string `mapstructure:"current-role"`
}

// Flags are the yes/no preferences used by choice questions.
type Flags struct {
	DriversLicence        bool `mapstructure:"drivers-licence"`
	Assessment            bool `mapstructure:"assessment"`
	SecurityClearance     bool `mapstructure:"security-clearance"`
	LegallyAuthorized     bool `mapstructure:"legally-authorized"`
	CertifiedProfessional bool `mapstructure:"certified-professional"`
	UrgentFill            bool `mapstructure:"urgent-fill"`
	Commute               bool `mapstructure:"commute"`
	Remote                bool `mapstructure:"remote"`
	BackgroundCheck       bool `mapstructure:"background-check"`
	DrugTest              bool `mapstructure:"drug-test"`
	Residency             bool `mapstructure:"residency"`
	RequireVisa           bool `mapstructure:"require-visa"`
	Relocate              bool `mapstructure:"relocate"`
}

// Load decodes the profile section of the configuration, validates it and
// reads the text resume when one is configured.
func Load(raw map[string]any) (*Profile, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("profile section is empty")
	}

	var p Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	p.normalize()

	if err := validator.New().Struct(&p); err != nil {
		return nil, fmt.Errorf("validate profile: %w", err)
	}

	if path := strings.TrimSpace(p.TextResumeFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read text resume %q: %w", path, err)
		}
		p.resumeText = strings.TrimSpace(string(data))
	}

	return &p, nil
}

func (p *Profile) normalize() {
	experience := make(map[string]int, len(p.Experience))
	for skill, years := range p.Experience {
		experience[strings.ToLower(strings.TrimSpace(skill))] = years
	}
	p.Experience = experience

	languages := make(map[string]string, len(p.Languages))
	for lang, level := range p.Languages {
		languages[strings.ToLower(strings.TrimSpace(lang))] = strings.TrimSpace(level)
	}
	p.Languages = languages

	for i, degree := range p.Degrees {
		p.Degrees[i] = strings.ToLower(strings.TrimSpace(degree))
	}
}

// FullName returns "First Last".
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.Personal.FirstName + " " + p.Personal.LastName)
}

// DefaultExperience returns the catch-all years of experience.
func (p *Profile) DefaultExperience() int {
	return p.Experience[DefaultExperienceKey]
}

// Skills returns the configured skills, sorted, without the default entry.
func (p *Profile) Skills() []string {
	skills := make([]string, 0, len(p.Experience))
	for skill := range p.Experience {
		if skill == DefaultExperienceKey {
			continue
		}
		skills = append(skills, skill)
	}
	slices.Sort(skills)
	return skills
}

// SkillIn returns the skill mentioned by the label as a whole word and its
// years of experience. The longest mention wins, so "javascript" beats "java".
func (p *Profile) SkillIn(label string) (string, int, bool) {
	best := ""
	for _, skill := range p.Skills() {
		if len(skill) > len(best) && mentions(label, skill) {
			best = skill
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, p.Experience[best], true
}

// mentions reports whether word occurs in s with no letter or digit directly
// around it.
func mentions(s, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		from = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ResumeText is the plain-text resume, empty when none was configured.
func (p *Profile) ResumeText() string {
	return p.resumeText
}

// YesNo renders a flag the way choice options are worded.
func YesNo(flag bool) string {
	if flag {
		return "yes"
	}
	return "no"
}
