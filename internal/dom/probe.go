package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/easy-applier/internal/utils"
)

const (
	maxStaleRetries = 3
	staleBackoff    = time.Second
)

var wait = utils.WaitFor

// Probe evaluates selectors in order and returns the first element found
// together with the selector that matched. When nothing matches the error
// wraps ErrNotFound.
func Probe(ctx context.Context, page Page, scope Element, sels ...Selector) (Element, Selector, error) {
	for _, sel := range sels {
		el, err := page.FindOne(ctx, scope, sel)
		if err == nil {
			return el, sel, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, sel, err
		}
	}

	names := make([]string, 0, len(sels))
	for _, sel := range sels {
		names = append(names, sel.String())
	}
	return nil, Selector{}, fmt.Errorf("probe [%s]: %w", strings.Join(names, ", "), ErrNotFound)
}

// Exists reports whether sel matches at least one element inside scope.
// Lookup errors are reported as absence.
func Exists(ctx context.Context, page Page, scope Element, sel Selector) bool {
	els, err := page.FindAll(ctx, scope, sel)
	return err == nil && len(els) > 0
}

// TextOf returns the text of the first element matching sel, or an empty
// string when there is none.
func TextOf(ctx context.Context, page Page, scope Element, sel Selector) string {
	el, err := page.FindOne(ctx, scope, sel)
	if err != nil {
		return ""
	}
	text, err := page.Text(ctx, el)
	if err != nil {
		return ""
	}
	return text
}

// RetryStale runs fn again while it fails with ErrStale, at most
// maxStaleRetries times in total.
func RetryStale(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxStaleRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrStale) {
			return err
		}
		if attempt == maxStaleRetries {
			break
		}
		if werr := wait(ctx, staleBackoff); werr != nil {
			return werr
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxStaleRetries, err)
}

// WaitWithFallback waits for primary and, when it times out, retries once with
// fallback. A zero fallback disables the second attempt.
func WaitWithFallback(ctx context.Context, page Page, primary, fallback Selector, timeout time.Duration) (Element, error) {
	el, err := page.WaitUntilPresent(ctx, primary, timeout)
	if err == nil || !errors.Is(err, ErrTimeout) || fallback == (Selector{}) {
		return el, err
	}
	return page.WaitUntilPresent(ctx, fallback, timeout)
}
