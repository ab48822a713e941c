package profile

import (
	"fmt"
	"slices"
	"strings"
)

// Summary renders the profile as the context block sent to the AI assistant.
func (p *Profile) Summary() string {
	var b strings.Builder

	b.WriteString("Personal Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.FullName())
	fmt.Fprintf(&b, "- Current Role: %s\n", p.Personal.CurrentRole)

	skills := p.Skills()
	parts := make([]string, 0, len(skills))
	for _, skill := range skills {
		parts = append(parts, fmt.Sprintf("%s (%d years)", skill, p.Experience[skill]))
	}
	fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(parts, ", "))

	langs := make([]string, 0, len(p.Languages))
	for lang, level := range p.Languages {
		langs = append(langs, fmt.Sprintf("%s: %s", lang, level))
	}
	slices.Sort(langs)
	fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(langs, ", "))
	fmt.Fprintf(&b, "- Professional Summary: %s\n", p.Personal.MessageToManager)

	if resume := p.ResumeText(); resume != "" {
		b.WriteString("\nResume Content (Give the greatest weight to this information, if specified):\n")
		b.WriteString(resume)
		b.WriteString("\n")
	}

	return b.String()
}
