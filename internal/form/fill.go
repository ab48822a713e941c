package form

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/easy-applier/internal/dom"
)

// NoOption marks a Value that does not select an option.
const NoOption = -1

// Value is a resolved answer. Choice kinds use Option, every other kind uses
// Text.
type Value struct {
	Text   string
	Option int
}

// TextValue builds a text answer.
func TextValue(s string) Value { return Value{Text: s, Option: NoOption} }

// NumberValue builds a numeric text answer.
func NumberValue(n int) Value { return Value{Text: strconv.Itoa(n), Option: NoOption} }

// OptionValue builds a choice answer.
func OptionValue(idx int) Value { return Value{Option: idx} }

// Render describes the value against the question, for logs.
func (v Value) Render(q *Question) string {
	if v.Option != NoOption {
		if v.Option >= 0 && v.Option < len(q.Options) {
			return q.Options[v.Option].Text
		}
		return fmt.Sprintf("option #%d", v.Option)
	}
	return v.Text
}

type filler func(ctx context.Context, page dom.Page, q *Question, v Value) error

var fillers = map[Kind]filler{
	KindSingleChoice: clickChoice,
	KindCheckbox:     clickChoice,
	KindDropdown:     selectChoice,
	KindFreeText:     writeText,
	KindNumericText:  writeText,
	KindDate:         writeDate,
}

// Fill writes v into the question's control.
func Fill(ctx context.Context, page dom.Page, q *Question, v Value) error {
	fill, ok := fillers[q.Kind]
	if !ok {
		return fmt.Errorf("no filler for %s question", q.Kind)
	}
	return fill(ctx, page, q, v)
}

func optionInRange(q *Question, v Value) error {
	if v.Option < 0 || v.Option >= len(q.Options) {
		return fmt.Errorf("option %d out of range [0,%d)", v.Option, len(q.Options))
	}
	return nil
}

func clickChoice(ctx context.Context, page dom.Page, q *Question, v Value) error {
	if err := optionInRange(q, v); err != nil {
		return err
	}
	if v.Option >= len(q.choices) {
		return fmt.Errorf("option %d has no control", v.Option)
	}
	return page.Click(ctx, q.choices[v.Option])
}

func selectChoice(ctx context.Context, page dom.Page, q *Question, v Value) error {
	if err := optionInRange(q, v); err != nil {
		return err
	}
	return page.SelectOption(ctx, q.control, q.Options[v.Option].Text)
}

func writeText(ctx context.Context, page dom.Page, q *Question, v Value) error {
	return page.Write(ctx, q.control, v.Text)
}

func writeDate(ctx context.Context, page dom.Page, q *Question, v Value) error {
	if err := page.Write(ctx, q.control, v.Text); err != nil {
		return err
	}
	return page.Press(ctx, q.control, dom.KeyEnter)
}
