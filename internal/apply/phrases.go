package apply

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/easy-applier/internal/dom"
)

const (
	submitActionText = "submit application"
	unfollowText     = "to stay up to date with their page"
)

// inlineError is the feedback element the form renders under a rejected field.
var inlineError = dom.Class("artdeco-inline-feedback--error")

// validationPhrases are fragments of the error messages the form shows next
// to rejected answers, in the locales the site is used with. Question and
// heading wording ("cuántos años", "preguntas adicionales") appears on healthy
// steps and must not be listed.
var validationPhrases = []string{
	"enter a valid",
	"enter a decimal",
	"enter a whole number",
	"enter a whole number between 0 and 99",
	"file is required",
	"whole number",
	"make a selection",
	"select checkbox to proceed",
	"saisissez un numéro",
	"请输入whole编号",
	"请输入decimal编号",
	"长度超过 0.0",
	"numéro de téléphone",
	"introduce un número de whole entre",
	"inserisci un numero whole compreso",
	"insira um um número",
	"use the format",
	"a file is required",
	"请选择",
	"请 选 择",
	"inserisci",
	"wholenummer",
	"wpisz liczb",
	"zakresu od",
	"tussen",
}

// validationError returns the first validation phrase found in text.
func validationError(text string) (string, bool) {
	text = strings.ToLower(text)
	for _, phrase := range validationPhrases {
		if strings.Contains(text, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// rejection looks for a validation error after a step was submitted. Inline
// error messages decide when the form shows any; otherwise the page text is
// matched against the known phrases.
func rejection(ctx context.Context, page dom.Page) (string, bool, error) {
	errs, err := page.FindAll(ctx, nil, inlineError)
	if err != nil && !errors.Is(err, dom.ErrNotFound) {
		return "", false, err
	}
	for _, el := range errs {
		text, err := page.Text(ctx, el)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if phrase, found := validationError(text); found {
			return phrase, true, nil
		}
		return strings.ToLower(text), true, nil
	}

	text, err := page.PageText(ctx)
	if err != nil {
		return "", false, err
	}
	phrase, found := validationError(text)
	return phrase, found, nil
}
