// Package dom describes the narrow page capability every other component is
// written against. Implementations live in the browser (live Chrome) and
// htmldom (static HTML snapshot) subpackages.
package dom

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the selector matched nothing. Callers usually treat it
	// as "feature not present".
	ErrNotFound = errors.New("element not found")
	// ErrTimeout means a bounded wait expired before the element appeared.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrStale means the element handle was invalidated by a re-render.
	ErrStale = errors.New("stale element reference")
)

// SelectorKind tells an implementation how to interpret Selector.Value.
type SelectorKind int

const (
	ByCSS SelectorKind = iota
	ByClass
	ByTag
	ByID
	// ByText matches elements of Selector.Tag whose text contains Selector.Value.
	ByText
)

// Selector locates elements on a page or inside a scope element.
type Selector struct {
	Kind  SelectorKind
	Value string
	Tag   string
}

func CSS(v string) Selector   { return Selector{Kind: ByCSS, Value: v} }
func Class(v string) Selector { return Selector{Kind: ByClass, Value: v} }
func Tag(v string) Selector   { return Selector{Kind: ByTag, Value: v} }
func ID(v string) Selector    { return Selector{Kind: ByID, Value: v} }

// Text matches tag elements containing the given text.
func Text(tag, contains string) Selector {
	return Selector{Kind: ByText, Tag: tag, Value: contains}
}

// CSSQuery renders the selector as a CSS query. ByText selectors render only
// their tag; the text condition is applied by the implementation.
func (s Selector) CSSQuery() string {
	switch s.Kind {
	case ByClass:
		return "." + s.Value
	case ByID:
		return "#" + s.Value
	case ByText:
		if s.Tag == "" {
			return "*"
		}
		return s.Tag
	default:
		return s.Value
	}
}

func (s Selector) String() string {
	switch s.Kind {
	case ByClass:
		return "class=" + s.Value
	case ByTag:
		return "tag=" + s.Value
	case ByID:
		return "id=" + s.Value
	case ByText:
		return fmt.Sprintf("%s[text~=%q]", s.CSSQuery(), s.Value)
	default:
		return "css=" + s.Value
	}
}

// Element is an opaque handle returned by a Page. Handles are only valid for
// the Page that produced them.
type Element interface {
	Describe() string
}

// Key is a special keyboard key sent with Page.Press.
type Key string

const (
	KeyEnter     Key = "enter"
	KeyArrowDown Key = "arrow-down"
)

// Page is the DOM accessor capability. A nil scope means the whole document.
type Page interface {
	FindOne(ctx context.Context, scope Element, sel Selector) (Element, error)
	FindAll(ctx context.Context, scope Element, sel Selector) ([]Element, error)
	WaitUntilPresent(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)

	// Text is the visible text of the element, whitespace trimmed.
	Text(ctx context.Context, el Element) (string, error)
	// Value is the current value of a form control.
	Value(ctx context.Context, el Element) (string, error)
	Attr(ctx context.Context, el Element, name string) (string, bool, error)

	// Write clears the control and types value into it.
	Write(ctx context.Context, el Element, value string) error
	// SelectOption picks the option of a select control by its visible text.
	SelectOption(ctx context.Context, el Element, text string) error
	Press(ctx context.Context, el Element, key Key) error
	Upload(ctx context.Context, el Element, path string) error
	Click(ctx context.Context, el Element) error

	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageText(ctx context.Context) (string, error)
}
