package form

import (
	"context"
	"fmt"

	"github.com/spigell/easy-applier/internal/dom"
	"github.com/spigell/easy-applier/internal/utils"
)

const choiceLabelClass = "fb-dash-form-element__label"

// GroupSelector matches the field groups of a question step.
var GroupSelector = dom.Class("fb-dash-form-element")

// Option is one selectable answer of a choice question.
type Option struct {
	Index int
	Text  string
}

// Question is a classified field group of the current step. It is rebuilt for
// every render of the form.
type Question struct {
	Kind    Kind
	Label   string
	Options []Option
	Current string

	group   dom.Element
	control dom.Element
	choices []dom.Element
}

// Prefilled reports whether a text control already carries a value.
func (q *Question) Prefilled() bool {
	return q.Kind.IsText() && q.Current != ""
}

// OptionTexts returns the option texts in order.
func (q *Question) OptionTexts() []string {
	texts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		texts = append(texts, o.Text)
	}
	return texts
}

type reader func(ctx context.Context, page dom.Page, q *Question) error

var readers = map[Kind]reader{
	KindSingleChoice: readSingleChoice,
	KindFreeText:     readText,
	KindNumericText:  readText,
	KindDate:         readDate,
	KindDropdown:     readDropdown,
	KindCheckbox:     readCheckbox,
}

// Read classifies the group and extracts its question.
func Read(ctx context.Context, page dom.Page, group dom.Element) (*Question, error) {
	kind := Classify(ctx, page, group)
	q := &Question{Kind: kind, group: group}

	read, ok := readers[kind]
	if !ok {
		return q, nil
	}
	if err := read(ctx, page, q); err != nil {
		return nil, fmt.Errorf("read %s question: %w", kind, err)
	}
	return q, nil
}

func readSingleChoice(ctx context.Context, page dom.Page, q *Question) error {
	fieldset, err := page.FindOne(ctx, q.group, dom.Tag("fieldset"))
	if err != nil {
		return err
	}
	q.control = fieldset

	label := dom.TextOf(ctx, page, fieldset, dom.CSS("."+choiceLabelClass+" span"))
	if label == "" {
		label = dom.TextOf(ctx, page, fieldset, dom.Tag("legend"))
	}
	q.Label = utils.NormalizeLabel(label)

	labels, err := page.FindAll(ctx, fieldset, dom.Tag("label"))
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return fmt.Errorf("no options found: %w", dom.ErrNotFound)
	}
	for i, el := range labels {
		text, err := page.Text(ctx, el)
		if err != nil {
			return err
		}
		q.Options = append(q.Options, Option{Index: i, Text: utils.NormalizeLabel(text)})
	}
	q.choices = labels
	return nil
}

func readText(ctx context.Context, page dom.Page, q *Question) error {
	q.Label = utils.NormalizeLabel(dom.TextOf(ctx, page, q.group, dom.Tag("label")))

	field, _, err := dom.Probe(ctx, page, q.group, textInput, dom.Tag("textarea"))
	if err != nil {
		return err
	}
	q.control = field

	current, err := page.Value(ctx, field)
	if err != nil {
		return err
	}
	q.Current = utils.NormalizeLabel(current)
	return nil
}

func readDate(ctx context.Context, page dom.Page, q *Question) error {
	q.Label = utils.NormalizeLabel(dom.TextOf(ctx, page, q.group, dom.Tag("label")))

	picker, err := page.FindOne(ctx, q.group, dom.Class(datePickerClass))
	if err != nil {
		return err
	}
	q.control = picker
	return nil
}

func readDropdown(ctx context.Context, page dom.Page, q *Question) error {
	q.Label = utils.NormalizeLabel(dom.TextOf(ctx, page, q.group, dom.Tag("label")))

	sel, err := page.FindOne(ctx, q.group, dom.Tag("select"))
	if err != nil {
		return err
	}
	q.control = sel

	options, err := page.FindAll(ctx, sel, dom.Tag("option"))
	if err != nil {
		return err
	}
	for i, el := range options {
		text, err := page.Text(ctx, el)
		if err != nil {
			return err
		}
		q.Options = append(q.Options, Option{Index: i, Text: text})
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("no options found: %w", dom.ErrNotFound)
	}

	current, err := page.Value(ctx, sel)
	if err != nil {
		return err
	}
	q.Current = current
	return nil
}

func readCheckbox(ctx context.Context, page dom.Page, q *Question) error {
	label, err := page.FindOne(ctx, q.group, dom.Tag("label"))
	if err != nil {
		return err
	}
	q.control = label

	text, err := page.Text(ctx, label)
	if err != nil {
		return err
	}
	q.Label = utils.NormalizeLabel(text)
	q.Options = []Option{{Index: 0, Text: q.Label}}
	q.choices = []dom.Element{label}
	return nil
}
