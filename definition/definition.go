// Package definition parses plain-text prompt definition documents into
// immutable PromptDefinition values and expands their templates.
//
// A document is divided into sections by marker lines of the form
// "@@ <SectionName>". Recognized section names (case-insensitive) are
// Instructions, Model, Tools, Prompt, and Response; unrecognized sections are
// ignored. The Instructions section is mandatory.
package definition

import "fmt"

// PromptDefinition is the parsed, immutable form of one definition document.
// Instances are replaced wholesale on reload and never mutated.
type PromptDefinition struct {
	// Name identifies the definition; derived from the source file name.
	Name string
	// Instructions is the system-level behavior text. Always non-empty.
	Instructions string
	// Model is the "<provider>/<model>" identifier, or "" when the document
	// has no Model section and the configured default applies.
	Model string
	// Tools lists declared tool names in declaration order, duplicates
	// collapsed to their first position.
	Tools []string
	// Template is the parsed prompt template. When the document has no
	// Prompt section the template is a single {{content}} placeholder, so
	// the caller-supplied content is used verbatim.
	Template *Template
	// Response holds optional response-formatting guideline text.
	Response string
}

// ParseError reports a malformed definition document. Parsing fails fast for
// the one document; other definitions remain usable.
type ParseError struct {
	Name   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("parse definition: %s", e.Reason)
	}
	return fmt.Sprintf("parse definition %q: %s", e.Name, e.Reason)
}

func parseErrorf(name, format string, args ...any) *ParseError {
	return &ParseError{Name: name, Reason: fmt.Sprintf(format, args...)}
}
