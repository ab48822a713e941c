// Package browser implements dom.Page on top of a Chrome instance driven by
// chromedp. The browser reuses a persistent profile directory so an existing
// logged-in session is picked up; logging in is left to the user.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/dom"
)

const defaultActionTimeout = 15 * time.Second

// Options configures the Chrome instance.
type Options struct {
	ProfileDir    string
	ExecPath      string
	Headless      bool
	ActionTimeout time.Duration
}

// Browser owns the chromedp allocator and tab contexts.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *zap.Logger
}

// Start launches Chrome with the given options.
func Start(ctx context.Context, opts Options, logger *zap.Logger) (*Browser, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1400, 1000),
	)
	if dir := strings.TrimSpace(opts.ProfileDir); dir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(dir))
	}
	if path := strings.TrimSpace(opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	logger.Info("browser started",
		zap.String("profile_dir", opts.ProfileDir),
		zap.Bool("headless", opts.Headless),
	)

	return &Browser{
		ctx: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		opts:   opts,
		logger: logger,
	}, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() {
	if b != nil && b.cancel != nil {
		b.cancel()
	}
}

// Page returns the dom.Page of the browser tab.
func (b *Browser) Page() *Page {
	return &Page{tab: b.ctx, timeout: b.opts.ActionTimeout}
}

// Page is the chromedp dom.Page.
type Page struct {
	tab     context.Context
	timeout time.Duration
}

type element struct {
	node *cdp.Node
}

func (e *element) Describe() string {
	if e == nil || e.node == nil {
		return "<nil>"
	}
	name := strings.ToLower(e.node.LocalName)
	if id := e.node.AttributeValue("id"); id != "" {
		return name + "#" + id
	}
	if class := e.node.AttributeValue("class"); class != "" {
		return name + "." + strings.Join(strings.Fields(class), ".")
	}
	return name
}

// run executes actions on the tab, bounded by the action timeout and by the
// caller's context.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	runCtx, cancel := context.WithTimeout(p.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return translate(err)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", dom.ErrTimeout, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no node with given id") || strings.Contains(msg, "could not find node") {
		return fmt.Errorf("%w: %v", dom.ErrStale, err)
	}
	return err
}

func nodeOf(el dom.Element) (*cdp.Node, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.node == nil {
		return nil, fmt.Errorf("browser: foreign element %T", el)
	}
	return e.node, nil
}

func ids(node *cdp.Node) []cdp.NodeID {
	return []cdp.NodeID{node.NodeID}
}

func (p *Page) FindAll(ctx context.Context, scope dom.Element, sel dom.Selector) ([]dom.Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		node, err := nodeOf(scope)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.FromNode(node))
	}

	var nodes []*cdp.Node
	if err := p.run(ctx, 0, chromedp.Nodes(sel.CSSQuery(), &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("find %s: %w", sel, err)
	}

	elements := make([]dom.Element, 0, len(nodes))
	for _, node := range nodes {
		el := &element{node: node}
		if sel.Kind == dom.ByText {
			text, err := p.Text(ctx, el)
			if err != nil || !strings.Contains(strings.ToLower(text), strings.ToLower(sel.Value)) {
				continue
			}
		}
		elements = append(elements, el)
	}
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

func (p *Page) WaitUntilPresent(ctx context.Context, sel dom.Selector, timeout time.Duration) (dom.Element, error) {
	var nodes []*cdp.Node
	err := p.run(ctx, timeout, chromedp.Nodes(sel.CSSQuery(), &nodes, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("wait %s: %w", sel, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("wait %s: %w", sel, dom.ErrTimeout)
	}
	return &element{node: nodes[0]}, nil
}

func (p *Page) Text(ctx context.Context, el dom.Element) (string, error) {
	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}
	var text string
	if err := p.run(ctx, 0, chromedp.TextContent(ids(node), &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}

func (p *Page) Value(ctx context.Context, el dom.Element) (string, error) {
	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}
	var value string
	if err := p.run(ctx, 0, chromedp.Value(ids(node), &value, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return value, nil
}

func (p *Page) Attr(ctx context.Context, el dom.Element, name string) (string, bool, error) {
	node, err := nodeOf(el)
	if err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	if err := p.run(ctx, 0, chromedp.AttributeValue(ids(node), name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (p *Page) Write(ctx context.Context, el dom.Element, value string) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	return p.run(ctx, 0,
		chromedp.Clear(ids(node), chromedp.ByNodeID),
		chromedp.SendKeys(ids(node), value, chromedp.ByNodeID),
	)
}

// SelectOption focuses the select and types the option text, which makes
// Chrome pick the option and fire the change event the page listens to.
func (p *Page) SelectOption(ctx context.Context, el dom.Element, text string) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}

	options, err := p.FindAll(ctx, el, dom.Tag("option"))
	if err != nil {
		return err
	}
	for _, option := range options {
		label, err := p.Text(ctx, option)
		if err != nil {
			return err
		}
		if strings.EqualFold(label, strings.TrimSpace(text)) {
			return p.run(ctx, 0,
				chromedp.Focus(ids(node), chromedp.ByNodeID),
				chromedp.SendKeys(ids(node), label, chromedp.ByNodeID),
			)
		}
	}
	return fmt.Errorf("option %q: %w", text, dom.ErrNotFound)
}

func (p *Page) Press(ctx context.Context, el dom.Element, key dom.Key) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	var keys string
	switch key {
	case dom.KeyEnter:
		keys = kb.Enter
	case dom.KeyArrowDown:
		keys = kb.ArrowDown
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	return p.run(ctx, 0, chromedp.SendKeys(ids(node), keys, chromedp.ByNodeID))
}

func (p *Page) Upload(ctx context.Context, el dom.Element, path string) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	return p.run(ctx, 0, chromedp.SetUploadFiles(ids(node), []string{path}, chromedp.ByNodeID))
}

func (p *Page) Click(ctx context.Context, el dom.Element) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	return p.run(ctx, 0, chromedp.Click(ids(node), chromedp.ByNodeID))
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, 2*p.timeout, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, 0, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (p *Page) PageText(ctx context.Context) (string, error) {
	var text string
	if err := p.run(ctx, 0, chromedp.TextContent("body", &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}

var _ dom.Page = (*Page)(nil)
