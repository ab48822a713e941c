package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chromedp/cdproto/cdp"

	"github.com/spigell/easy-applier/internal/dom"
)

func TestTranslate(t *testing.T) {
	if translate(nil) != nil {
		t.Fatal("nil must stay nil")
	}

	if err := translate(fmt.Errorf("run: %w", context.DeadlineExceeded)); !errors.Is(err, dom.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	if err := translate(errors.New("Could not find node with given id (-32000)")); !errors.Is(err, dom.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	other := errors.New("boom")
	if err := translate(other); !errors.Is(err, other) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestElementDescribe(t *testing.T) {
	el := &element{node: &cdp.Node{LocalName: "button", Attributes: []string{"class", "artdeco-button  artdeco-button--primary"}}}
	if got := el.Describe(); got != "button.artdeco-button.artdeco-button--primary" {
		t.Fatalf("unexpected description: %q", got)
	}

	if _, err := nodeOf(nil); err == nil {
		t.Fatal("expected error for foreign element")
	}
}
