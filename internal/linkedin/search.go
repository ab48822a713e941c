// Package linkedin knows the job site: how search pages are addressed, how
// result tiles are scanned and how a whole run walks every search segment.
package linkedin

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

const (
	BaseURL    = "https://www.linkedin.com"
	SearchPath = "/jobs/search/"
	// PageSize is the number of results on one search page.
	PageSize = 25
)

var (
	// experienceLevels are in the order of the site's f_E codes starting at 1.
	experienceLevels = []string{"internship", "entry", "associate", "mid-senior", "director", "executive"}
	jobTypes         = []string{"full-time", "part-time", "contract", "temporary", "internship", "volunteer", "other"}
	postedWithin     = map[string]string{
		"":         "",
		"all time": "",
		"month":    "r2592000",
		"week":     "r604800",
		"24 hours": "r86400",
	}
)

// SearchParams is the search section of the configuration.
type SearchParams struct {
	Positions             []string `mapstructure:"positions"`
	Locations             []string `mapstructure:"locations"`
	Distance              int      `mapstructure:"distance"`
	Remote                bool     `mapstructure:"remote"`
	LessThanTenApplicants bool     `mapstructure:"less-than-ten-applicants"`
	NewestFirst           bool     `mapstructure:"newest-first"`
	ExperienceLevel       []string `mapstructure:"experience-level"`
	JobTypes              []string `mapstructure:"job-types"`
	Date                  string   `mapstructure:"date"`
}

// Validate checks the enumerated values.
func (p *SearchParams) Validate() error {
	if len(p.Positions) == 0 {
		return fmt.Errorf("at least one search position is required")
	}
	if len(p.Locations) == 0 {
		return fmt.Errorf("at least one search location is required")
	}
	for _, level := range p.ExperienceLevel {
		if !slices.Contains(experienceLevels, strings.ToLower(level)) {
			return fmt.Errorf("unknown experience level %q, expected one of %v", level, experienceLevels)
		}
	}
	for _, t := range p.JobTypes {
		if !slices.Contains(jobTypes, strings.ToLower(t)) {
			return fmt.Errorf("unknown job type %q, expected one of %v", t, jobTypes)
		}
	}
	if _, ok := postedWithin[strings.ToLower(p.Date)]; !ok {
		return fmt.Errorf("unknown date %q", p.Date)
	}
	return nil
}

// searchFilters are the query parameters shared by every page of a run.
type searchFilters struct {
	// liparam is custom tag for reflect. Please see buildParams.
	Distance       int      `liparam:"distance"`
	WorkType       string   `liparam:"f_WT"`
	EarlyApplicant bool     `liparam:"f_EA"`
	SortBy         string   `liparam:"sortBy"`
	JobTypes       []string `liparam:"f_JT"`
	Experience     []int    `liparam:"f_E"`
	PostedWithin   string   `liparam:"f_TPR"`
	EasyApply      bool     `liparam:"f_AL"`
}

func (p *SearchParams) filters() *searchFilters {
	f := &searchFilters{
		Distance:       p.Distance,
		EarlyApplicant: p.LessThanTenApplicants,
		PostedWithin:   postedWithin[strings.ToLower(p.Date)],
		EasyApply:      true,
	}
	if p.Remote {
		f.WorkType = "2"
	}
	if p.NewestFirst {
		f.SortBy = "DD"
	}
	for i, level := range experienceLevels {
		if slices.ContainsFunc(p.ExperienceLevel, func(s string) bool { return strings.EqualFold(s, level) }) {
			f.Experience = append(f.Experience, i+1)
		}
	}
	for _, t := range jobTypes {
		if slices.ContainsFunc(p.JobTypes, func(s string) bool { return strings.EqualFold(s, t) }) {
			f.JobTypes = append(f.JobTypes, strings.ToUpper(t[:1]))
		}
	}
	return f
}

// SearchURL returns the address of a search result page. Pages start at 0.
func (p *SearchParams) SearchURL(position, location string, page int) string {
	q := buildParams(p.filters())
	q.Set("keywords", position)
	q.Set("location", location)
	q.Set("start", strconv.Itoa(page*PageSize))
	return BaseURL + SearchPath + "?" + q.Encode()
}

func buildParams(params *searchFilters) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("liparam")
		if key == "" {
			continue
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []int:
			if len(v) == 0 {
				continue
			}
			parts := make([]string, 0, len(v))
			for _, i := range v {
				parts = append(parts, strconv.Itoa(i))
			}
			q.Set(key, strings.Join(parts, ","))
		case []string:
			if len(v) > 0 {
				q.Set(key, strings.Join(v, ","))
			}
		case bool:
			if v {
				q.Set(key, "true")
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}
	return q
}
