package definition

import (
	"regexp"
	"strings"
)

var (
	sectionMarker  = regexp.MustCompile(`^@@\s*(\S+)`)
	modelForm      = regexp.MustCompile(`^[A-Za-z0-9._-]+/[A-Za-z0-9._:-]+$`)
	toolSeparators = regexp.MustCompile(`[\s,;]+`)
)

// Parse turns one definition document into a PromptDefinition. It is a pure
// function of the document text: parsing the same text twice yields
// structurally identical values.
func Parse(name, document string) (*PromptDefinition, error) {
	sections := splitSections(document)

	instructions, ok := sections["instructions"]
	if !ok {
		// The original document format accepted the singular form too.
		instructions, ok = sections["instruction"]
	}
	if !ok || strings.TrimSpace(instructions) == "" {
		return nil, parseErrorf(name, "missing @@ Instructions section")
	}

	model := strings.TrimSpace(sections["model"])
	if _, present := sections["model"]; present {
		if !modelForm.MatchString(model) {
			return nil, parseErrorf(name, "model %q is not in <provider>/<model> form", model)
		}
	}

	var tools []string
	if body, present := sections["tools"]; present {
		tools = splitToolNames(body)
		if len(tools) == 0 {
			return nil, parseErrorf(name, "@@ Tools section lists no tools")
		}
	}

	templateText, present := sections["prompt"]
	if !present {
		// No Prompt section: the caller-supplied content is the prompt.
		templateText = "{{content}}"
	} else {
		templateText = strings.TrimSpace(templateText)
	}
	template, err := ParseTemplate(templateText)
	if err != nil {
		return nil, parseErrorf(name, "prompt template: %v", err)
	}

	return &PromptDefinition{
		Name:         name,
		Instructions: strings.TrimSpace(instructions),
		Model:        model,
		Tools:        tools,
		Template:     template,
		Response:     strings.TrimSpace(sections["response"]),
	}, nil
}

// splitSections walks the document line by line and collects section bodies
// keyed by lowercased section name. Text before the first marker is dropped.
func splitSections(document string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var body strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = body.String()
			body.Reset()
		}
	}

	for _, line := range strings.Split(document, "\n") {
		if match := sectionMarker.FindStringSubmatch(line); match != nil {
			flush()
			current = strings.ToLower(match[1])
			continue
		}
		if current != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()
	return sections
}

// splitToolNames extracts tool names, one or more per non-blank line, and
// collapses duplicates to their first position.
func splitToolNames(body string) []string {
	seen := make(map[string]struct{})
	var tools []string
	for _, entry := range toolSeparators.Split(body, -1) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		tools = append(tools, entry)
	}
	return tools
}
