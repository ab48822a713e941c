package linkedin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/easy-applier/internal/dom"
	"github.com/spigell/easy-applier/internal/listing"
)

// ErrNoMoreResults ends a search segment.
var ErrNoMoreResults = errors.New("no more results")

const (
	tilesTimeout       = 10 * time.Second
	descriptionTimeout = 10 * time.Second
	hiringSuffix       = " is hiring for this"
)

var (
	noResultsBanner = dom.Class("jobs-search-two-pane__no-results-banner--expand")
	resultsHeader   = dom.Class("jobs-search-results-list__text")
	tileSelector    = dom.Class("scaffold-layout__list-item")
	tileFallback    = dom.Class("jobs-search-results__list-item")
	titleLink       = dom.Class("job-card-list__title--link")
	cardLinks       = []dom.Selector{
		dom.Class("job-card-job-posting-card-wrapper__card-link"),
		titleLink,
	}
	companyLine     = dom.Class("artdeco-entity-lockup__subtitle")
	locationLine    = dom.Class("job-card-container__metadata-item")
	applyMethodLine = dom.Class("job-card-container__apply-method")
	jobDetails      = dom.ID("job-details")
)

// Scanner reads search result pages.
type Scanner struct {
	page dom.Page
}

func NewScanner(page dom.Page) *Scanner {
	return &Scanner{page: page}
}

// CheckResults returns ErrNoMoreResults when the page shows no real results.
func (s *Scanner) CheckResults(ctx context.Context) error {
	if banner := dom.TextOf(ctx, s.page, nil, noResultsBanner); strings.Contains(banner, "No matching jobs found") {
		return fmt.Errorf("no matching jobs: %w", ErrNoMoreResults)
	}

	text, err := s.page.PageText(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(text), "unfortunately, things are") {
		return fmt.Errorf("search is unavailable: %w", ErrNoMoreResults)
	}

	if header := dom.TextOf(ctx, s.page, nil, resultsHeader); strings.Contains(header, "Jobs you may be interested in") {
		return fmt.Errorf("only recommendations left: %w", ErrNoMoreResults)
	}
	return nil
}

// Tiles returns the result tiles currently rendered. Handles go stale when
// the list re-renders, so callers fetch them again for every tile.
func (s *Scanner) Tiles(ctx context.Context) ([]dom.Element, error) {
	if _, err := dom.WaitWithFallback(ctx, s.page, tileSelector, tileFallback, tilesTimeout); err != nil {
		return nil, err
	}

	sel := tileSelector
	if !dom.Exists(ctx, s.page, nil, tileSelector) {
		sel = tileFallback
	}
	return s.page.FindAll(ctx, nil, sel)
}

// Posting reads the tile into a posting. Missing parts stay empty.
func (s *Scanner) Posting(ctx context.Context, tile dom.Element) *listing.Posting {
	p := &listing.Posting{
		Company:     dom.TextOf(ctx, s.page, tile, companyLine),
		Location:    dom.TextOf(ctx, s.page, tile, locationLine),
		ApplyMethod: dom.TextOf(ctx, s.page, tile, applyMethodLine),
	}

	if link, err := s.page.FindOne(ctx, tile, titleLink); err == nil {
		p.Title = dom.TextOf(ctx, s.page, link, dom.Tag("strong"))
		if p.Title == "" {
			p.Title, _ = s.page.Text(ctx, link)
		}
		if href, ok, _ := s.page.Attr(ctx, link, "href"); ok {
			p.URL = absoluteURL(href)
		}
	}

	if line := dom.TextOf(ctx, s.page, tile, dom.Text("span", hiringSuffix)); line != "" {
		if i := strings.Index(line, hiringSuffix); i > 0 {
			p.Poster = strings.TrimSpace(line[:i])
		}
	}
	return p
}

// Open clicks the tile so its description is shown in the details pane.
func (s *Scanner) Open(ctx context.Context, tile dom.Element) error {
	link, _, err := dom.Probe(ctx, s.page, tile, cardLinks...)
	if err != nil {
		return err
	}
	return s.page.Click(ctx, link)
}

// Description waits for the details pane and returns its text.
func (s *Scanner) Description(ctx context.Context) (string, error) {
	el, err := s.page.WaitUntilPresent(ctx, jobDetails, descriptionTimeout)
	if err != nil {
		return "", err
	}
	return s.page.Text(ctx, el)
}

func absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") {
		href = BaseURL + href
	}
	return listing.CanonicalURL(href)
}
