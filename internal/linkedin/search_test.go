package linkedin

import (
	"testing"
)

func TestSearchURL(t *testing.T) {
	params := &SearchParams{
		Positions:             []string{"Go Developer"},
		Locations:             []string{"Berlin, Germany"},
		Distance:              25,
		Remote:                true,
		LessThanTenApplicants: true,
		NewestFirst:           true,
		ExperienceLevel:       []string{"mid-senior", "Entry"},
		JobTypes:              []string{"contract", "full-time"},
		Date:                  "week",
	}
	if err := params.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	got := params.SearchURL("Go Developer", "Berlin, Germany", 2)
	want := "https://www.linkedin.com/jobs/search/?distance=25&f_AL=true&f_E=2%2C4&f_EA=true&f_JT=F%2CC" +
		"&f_TPR=r604800&f_WT=2&keywords=Go+Developer&location=Berlin%2C+Germany&sortBy=DD&start=50"
	if got != want {
		t.Fatalf("unexpected url\n got: %s\nwant: %s", got, want)
	}
}

func TestSearchURLDefaults(t *testing.T) {
	params := &SearchParams{}

	got := params.SearchURL("go", "remote", 0)
	want := "https://www.linkedin.com/jobs/search/?f_AL=true&keywords=go&location=remote&start=0"
	if got != want {
		t.Fatalf("unexpected url\n got: %s\nwant: %s", got, want)
	}
}

func TestSearchParamsValidate(t *testing.T) {
	base := func() *SearchParams {
		return &SearchParams{Positions: []string{"go"}, Locations: []string{"remote"}}
	}

	tests := map[string]func(p *SearchParams){
		"no positions":     func(p *SearchParams) { p.Positions = nil },
		"no locations":     func(p *SearchParams) { p.Locations = nil },
		"unknown level":    func(p *SearchParams) { p.ExperienceLevel = []string{"guru"} },
		"unknown job type": func(p *SearchParams) { p.JobTypes = []string{"gig"} },
		"unknown date":     func(p *SearchParams) { p.Date = "fortnight" },
	}
	for name, mutate := range tests {
		p := base()
		mutate(p)
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
