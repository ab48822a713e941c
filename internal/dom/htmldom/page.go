// Package htmldom implements dom.Page over a static HTML snapshot parsed with
// goquery. Writes and clicks mutate the in-memory document, which makes the
// page usable for offline inspection of saved forms and as a test fixture.
package htmldom

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/spigell/easy-applier/internal/dom"
)

// ClickHook is invoked after every click. It may replace the document with
// SetHTML to emulate navigation between steps.
type ClickHook func(p *Page, el *Element) error

// Page is a goquery-backed dom.Page. It is not safe for concurrent use.
type Page struct {
	doc *goquery.Document
	url string
	gen int

	// Routes maps URLs to documents loaded by Navigate.
	Routes map[string]string
	// OnClick is called after the click has been applied to the document.
	OnClick ClickHook

	clicks  []string
	presses []dom.Key
	uploads map[string]string
}

// Element is a node of the snapshot.
type Element struct {
	sel *goquery.Selection
	gen int
}

func (e *Element) Describe() string {
	if e == nil || e.sel == nil || e.sel.Length() == 0 {
		return "<nil>"
	}
	node := goquery.NodeName(e.sel)
	if id, ok := e.sel.Attr("id"); ok {
		return node + "#" + id
	}
	if class, ok := e.sel.Attr("class"); ok {
		return node + "." + strings.Join(strings.Fields(class), ".")
	}
	return node
}

// Selection exposes the underlying goquery selection.
func (e *Element) Selection() *goquery.Selection {
	return e.sel
}

// New parses html into a page.
func New(html string) (*Page, error) {
	p := &Page{uploads: make(map[string]string)}
	if err := p.SetHTML(html); err != nil {
		return nil, err
	}
	return p, nil
}

// Open reads a saved page from disk.
func Open(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	p, err := New(string(data))
	if err != nil {
		return nil, err
	}
	p.url = "file://" + path
	return p, nil
}

// SetHTML replaces the document. Handles obtained before the call become stale.
func (p *Page) SetHTML(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}
	p.doc = doc
	p.gen++
	return nil
}

// SetURL sets the address reported by CurrentURL.
func (p *Page) SetURL(url string) {
	p.url = url
}

// Clicked returns a description of every clicked element, in order.
func (p *Page) Clicked() []string {
	return append([]string(nil), p.clicks...)
}

// Pressed returns the keys sent with Press, in order.
func (p *Page) Pressed() []dom.Key {
	return append([]dom.Key(nil), p.presses...)
}

// Uploaded returns the file uploaded into the element with the given id or name.
func (p *Page) Uploaded(key string) string {
	return p.uploads[key]
}

// Document exposes the current document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

func (p *Page) element(el dom.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil || e.sel == nil {
		return nil, fmt.Errorf("htmldom: foreign element %T", el)
	}
	if e.gen != p.gen {
		return nil, fmt.Errorf("%s: %w", e.Describe(), dom.ErrStale)
	}
	return e, nil
}

func (p *Page) find(scope dom.Element, sel dom.Selector) (*goquery.Selection, error) {
	var root *goquery.Selection
	if scope == nil {
		root = p.doc.Selection
	} else {
		e, err := p.element(scope)
		if err != nil {
			return nil, err
		}
		root = e.sel
	}

	found := root.Find(sel.CSSQuery())
	if sel.Kind == dom.ByText {
		needle := strings.ToLower(sel.Value)
		found = found.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(s.Text()), needle)
		})
	}
	return found, nil
}

func (p *Page) FindAll(_ context.Context, scope dom.Element, sel dom.Selector) ([]dom.Element, error) {
	found, err := p.find(scope, sel)
	if err != nil {
		return nil, err
	}
	elements := make([]dom.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{sel: s, gen: p.gen})
	})
	return elements, nil
}

func (p *Page) FindOne(ctx context.Context, scope dom.Element, sel dom.Selector) (dom.Element, error) {
	all, err := p.FindAll(ctx, scope, sel)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, dom.ErrNotFound)
	}
	return all[0], nil
}

// WaitUntilPresent does not wait: a snapshot never changes on its own.
func (p *Page) WaitUntilPresent(ctx context.Context, sel dom.Selector, _ time.Duration) (dom.Element, error) {
	el, err := p.FindOne(ctx, nil, sel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sel, dom.ErrTimeout)
	}
	return el, nil
}

func (p *Page) Text(_ context.Context, el dom.Element) (string, error) {
	e, err := p.element(el)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (p *Page) Value(_ context.Context, el dom.Element) (string, error) {
	e, err := p.element(el)
	if err != nil {
		return "", err
	}

	switch goquery.NodeName(e.sel) {
	case "select":
		selected := e.sel.Find("option[selected]").First()
		if selected.Length() == 0 {
			return "", nil
		}
		return strings.TrimSpace(selected.Text()), nil
	case "textarea":
		if v, ok := e.sel.Attr("value"); ok {
			return v, nil
		}
		return e.sel.Text(), nil
	default:
		v, _ := e.sel.Attr("value")
		return v, nil
	}
}

func (p *Page) Attr(_ context.Context, el dom.Element, name string) (string, bool, error) {
	e, err := p.element(el)
	if err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (p *Page) Write(_ context.Context, el dom.Element, value string) error {
	e, err := p.element(el)
	if err != nil {
		return err
	}
	e.sel.SetAttr("value", value)
	if goquery.NodeName(e.sel) == "textarea" {
		e.sel.SetText(value)
	}
	return nil
}

func (p *Page) SelectOption(_ context.Context, el dom.Element, text string) error {
	e, err := p.element(el)
	if err != nil {
		return err
	}

	options := e.sel.Find("option")
	target := options.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.Text()), strings.TrimSpace(text))
	}).First()
	if target.Length() == 0 {
		return fmt.Errorf("option %q: %w", text, dom.ErrNotFound)
	}

	options.RemoveAttr("selected")
	target.SetAttr("selected", "selected")
	return nil
}

func (p *Page) Press(_ context.Context, el dom.Element, key dom.Key) error {
	if _, err := p.element(el); err != nil {
		return err
	}
	p.presses = append(p.presses, key)
	return nil
}

func (p *Page) Upload(_ context.Context, el dom.Element, path string) error {
	e, err := p.element(el)
	if err != nil {
		return err
	}
	key, ok := e.sel.Attr("id")
	if !ok {
		key, _ = e.sel.Attr("name")
	}
	p.uploads[key] = path
	e.sel.SetAttr("data-uploaded", path)
	return nil
}

func (p *Page) Click(_ context.Context, el dom.Element) error {
	e, err := p.element(el)
	if err != nil {
		return err
	}

	p.check(e.sel)
	p.clicks = append(p.clicks, e.Describe()+" "+strings.Join(strings.Fields(e.sel.Text()), " "))

	if p.OnClick != nil {
		return p.OnClick(p, e)
	}
	return nil
}

// check marks the radio or checkbox controlled by a clicked label or input.
func (p *Page) check(sel *goquery.Selection) {
	var input *goquery.Selection
	switch goquery.NodeName(sel) {
	case "input":
		input = sel
	case "label":
		input = sel.Find("input").First()
		if input.Length() == 0 {
			if id, ok := sel.Attr("for"); ok {
				input = p.doc.Find("#" + id).First()
			}
		}
	default:
		return
	}
	if input == nil || input.Length() == 0 {
		return
	}

	switch t, _ := input.Attr("type"); t {
	case "radio":
		if name, ok := input.Attr("name"); ok {
			p.doc.Find(fmt.Sprintf("input[type=radio][name=%q]", name)).RemoveAttr("checked")
		}
		input.SetAttr("checked", "checked")
	case "checkbox":
		if _, checked := input.Attr("checked"); checked {
			input.RemoveAttr("checked")
		} else {
			input.SetAttr("checked", "checked")
		}
	}
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.url = url
	if html, ok := p.Routes[url]; ok {
		return p.SetHTML(html)
	}
	return nil
}

func (p *Page) CurrentURL(context.Context) (string, error) {
	return p.url, nil
}

func (p *Page) PageText(context.Context) (string, error) {
	return strings.Join(strings.Fields(p.doc.Text()), " "), nil
}

var _ dom.Page = (*Page)(nil)
