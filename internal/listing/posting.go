// Package listing holds job postings discovered while scanning search results
// and the exclude file that keeps unwanted postings out of future runs.
package listing

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Posting is a scanned job listing. It is read-only once scanned, except for
// Description which is filled when the details pane is loaded.
type Posting struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	Poster         string `json:"poster,omitempty"`
	Location       string `json:"location,omitempty"`
	ApplyMethod    string `json:"apply_method,omitempty"`
	Description    string `json:"description,omitempty"`
	SearchLocation string `json:"search_location,omitempty"`
}

// Postings is an ordered collection of postings.
type Postings struct {
	Items []*Posting `json:"items"`
}

// CanonicalURL strips the query and fragment so the same listing reached from
// different search pages compares equal.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

func (p *Postings) Len() int {
	return len(p.Items)
}

// Add appends a posting.
func (p *Postings) Add(posting *Posting) {
	p.Items = append(p.Items, posting)
}

// FindByURL returns the posting with the given canonical URL.
func (p *Postings) FindByURL(u string) *Posting {
	u = CanonicalURL(u)
	for _, posting := range p.Items {
		if posting.URL == u {
			return posting
		}
	}
	return nil
}

// ReportByCompany groups postings by company.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		report[posting.Company] = append(report[posting.Company], map[string]string{
			"title":           posting.Title,
			"url":             posting.URL,
			"location":        posting.Location,
			"search location": posting.SearchLocation,
			"poster":          posting.Poster,
		})
	}
	return report
}

// DumpToTmpFile writes the postings as JSON into a new temporary file and
// returns its name.
func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode postings: %w", err)
	}
	return file.Name(), nil
}
