package dom_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/easy-applier/internal/dom"
	"github.com/spigell/easy-applier/internal/dom/htmldom"
)

func TestProbeReturnsFirstMatch(t *testing.T) {
	ctx := context.Background()
	page, err := htmldom.New(`<html><body><button class="toast-dismiss">x</button></body></html>`)
	require.NoError(t, err)

	el, sel, err := dom.Probe(ctx, page, nil, dom.Class("modal-dismiss"), dom.Class("toast-dismiss"))
	require.NoError(t, err)
	assert.Equal(t, dom.Class("toast-dismiss"), sel)
	assert.Contains(t, el.Describe(), "toast-dismiss")

	_, _, err = dom.Probe(ctx, page, nil, dom.Class("nothing"))
	assert.ErrorIs(t, err, dom.ErrNotFound)
}

func TestRetryStale(t *testing.T) {
	calls := 0
	err := dom.RetryStale(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return dom.ErrStale
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryStaleGivesUp(t *testing.T) {
	calls := 0
	err := dom.RetryStale(context.Background(), func(context.Context) error {
		calls++
		return dom.ErrStale
	})
	assert.ErrorIs(t, err, dom.ErrStale)
	assert.Equal(t, 3, calls)
}

func TestRetryStaleDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := dom.RetryStale(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWaitWithFallback(t *testing.T) {
	ctx := context.Background()
	page, err := htmldom.New(`<html><body><ul class="jobs-list"></ul></body></html>`)
	require.NoError(t, err)

	el, err := dom.WaitWithFallback(ctx, page, dom.Class("scaffold-list"), dom.Class("jobs-list"), time.Second)
	require.NoError(t, err)
	assert.Contains(t, el.Describe(), "jobs-list")

	_, err = dom.WaitWithFallback(ctx, page, dom.Class("scaffold-list"), dom.Selector{}, time.Second)
	assert.ErrorIs(t, err, dom.ErrTimeout)
}

func TestTextOfAndExists(t *testing.T) {
	ctx := context.Background()
	page, err := htmldom.New(`<html><body><div id="job-details"> Build   things </div></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Build things", dom.TextOf(ctx, page, nil, dom.ID("job-details")))
	assert.Equal(t, "", dom.TextOf(ctx, page, nil, dom.ID("missing")))
	assert.True(t, dom.Exists(ctx, page, nil, dom.ID("job-details")))
	assert.False(t, dom.Exists(ctx, page, nil, dom.Tag("form")))
}
