// Package htmlform extracts the single form embedded in an HTML document:
// its action URL, submission method and prefilled input values. The sign-in
// flow uses it to replay the provider's login and consent forms without a
// browser.
package htmlform

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"vkstats/pkg/errors"
)

// state tracks the extractor's position relative to the document's form.
type state int

const (
	stateScanning state = iota // no form seen yet
	stateInForm                // between <form> and </form>
	stateDone                  // form fully parsed
)

// Form describes a parsed HTML form ready for resubmission.
type Form struct {
	// Action is the form's submission URL, as written in the document.
	Action string
	// Method is the uppercased submission method, GET when absent.
	Method string
	// Fields holds the captured input values in insertion order.
	Fields *Fields
}

// Fields is an ordered name/value collection with last-write-wins semantics
// for duplicate names.
type Fields struct {
	names  []string
	values map[string]string
}

// NewFields returns an empty field collection.
func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

// Set records a value, appending the name on first sight and overwriting on
// repeats.
func (f *Fields) Set(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the value for name and whether it is present.
func (f *Fields) Get(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Has reports whether name is present.
func (f *Fields) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Names returns the field names in insertion order.
func (f *Fields) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of distinct fields.
func (f *Fields) Len() int {
	return len(f.names)
}

// Map returns the fields as a plain map for form submission.
func (f *Fields) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// capturedInputTypes are the input types whose values survive form replay.
var capturedInputTypes = map[string]bool{
	"hidden":   true,
	"text":     true,
	"password": true,
}

// Extract scans the document for exactly one form and returns its
// descriptor. A document with zero forms, a second form, a nested form, or a
// stray closing tag is malformed: the provider's markup no longer matches
// what this client understands, and submitting a guess would be worse than
// failing.
func Extract(document string) (*Form, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(document))

	st := stateScanning
	form := &Form{Method: "GET", Fields: NewFields()}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, errors.Newf(errors.ErrorTypeParsing, "tokenizing document: %v", err)
			}
			switch st {
			case stateInForm:
				return nil, errors.New(errors.ErrorTypeParsing, "document ended inside an unclosed form")
			case stateScanning:
				return nil, errors.New(errors.ErrorTypeParsing, "document contains no form")
			}
			return form, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "form":
				if st == stateDone {
					return nil, errors.New(errors.ErrorTypeParsing, "second form on page")
				}
				if st == stateInForm {
					return nil, errors.New(errors.ErrorTypeParsing, "nested form on page")
				}
				st = stateInForm
				attrs := attributeMap(token)
				form.Action = attrs["action"]
				if method, ok := attrs["method"]; ok {
					form.Method = strings.ToUpper(method)
				}
			case "input":
				if st != stateInForm {
					continue
				}
				attrs := attributeMap(token)
				name, hasName := attrs["name"]
				if !hasName || name == "" {
					continue
				}
				if !capturedInputTypes[strings.ToLower(attrs["type"])] {
					continue
				}
				form.Fields.Set(name, attrs["value"])
			}

		case html.EndTagToken:
			token := tokenizer.Token()
			if token.Data == "form" {
				if st != stateInForm {
					return nil, errors.New(errors.ErrorTypeParsing, "unexpected closing form tag")
				}
				st = stateDone
			}
		}
	}
}

// attributeMap lowers attribute keys; the tokenizer already lowercases tag
// names.
func attributeMap(token html.Token) map[string]string {
	attrs := make(map[string]string, len(token.Attr))
	for _, attr := range token.Attr {
		attrs[strings.ToLower(attr.Key)] = attr.Val
	}
	return attrs
}
