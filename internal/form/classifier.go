package form

import (
	"context"
	"strings"

	"github.com/spigell/easy-applier/internal/dom"
)

const (
	datePickerClass = "artdeco-datepicker__input"
	numericIDMarker = "numeric"
)

var textInput = dom.CSS("input:not([type=checkbox]):not([type=radio]):not([type=file]):not(." + datePickerClass + ")")

type kindProbe struct {
	kind Kind
	sels []dom.Selector
}

// kindProbes is evaluated in order; the first probe with a matching selector
// decides the kind.
var kindProbes = []kindProbe{
	{kind: KindSingleChoice, sels: []dom.Selector{dom.Tag("fieldset")}},
	{kind: KindFreeText, sels: []dom.Selector{textInput, dom.Tag("textarea")}},
	{kind: KindDate, sels: []dom.Selector{dom.Class(datePickerClass)}},
	{kind: KindDropdown, sels: []dom.Selector{dom.Tag("select")}},
	{kind: KindCheckbox, sels: []dom.Selector{dom.CSS("label:has(input[type=checkbox])")}},
}

// Classify assigns exactly one Kind to a field group. Groups matching no probe
// are KindUnknown.
func Classify(ctx context.Context, page dom.Page, group dom.Element) Kind {
	for _, probe := range kindProbes {
		el, _, err := dom.Probe(ctx, page, group, probe.sels...)
		if err != nil {
			continue
		}
		if probe.kind == KindFreeText && isNumeric(ctx, page, el) {
			return KindNumericText
		}
		return probe.kind
	}
	return KindUnknown
}

func isNumeric(ctx context.Context, page dom.Page, el dom.Element) bool {
	id, _, err := page.Attr(ctx, el, "id")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(id), numericIDMarker)
}
