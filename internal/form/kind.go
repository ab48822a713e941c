// Package form turns the field groups of an application step into typed
// questions and writes resolved answers back into the page.
package form

// Kind is the closed set of control kinds a field group can be classified as.
type Kind int

const (
	KindUnknown Kind = iota
	KindSingleChoice
	KindFreeText
	KindNumericText
	KindDate
	KindDropdown
	KindCheckbox
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindSingleChoice: "single-choice",
	KindFreeText:     "free-text",
	KindNumericText:  "numeric-text",
	KindDate:         "date",
	KindDropdown:     "dropdown",
	KindCheckbox:     "multi-select-checkbox",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// IsChoice reports whether answers of this kind are an option index.
func (k Kind) IsChoice() bool {
	return k == KindSingleChoice || k == KindDropdown
}

// IsText reports whether answers of this kind are typed text.
func (k Kind) IsText() bool {
	return k == KindFreeText || k == KindNumericText
}
