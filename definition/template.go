package definition

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// The template grammar is deliberately small: literal runs, {{name}}
// placeholders, and single-level {{#if name}}...{{/if}} blocks. Nested
// conditional blocks are rejected at parse time.

const missingValue = "n/a"

var identifierForm = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodePlaceholder
	nodeConditional
)

type templateNode struct {
	kind nodeKind
	// text is the literal run for nodeLiteral, the variable name otherwise.
	text string
	// body holds the inner nodes of a conditional block.
	body []templateNode
}

// Template is a parsed prompt template.
type Template struct {
	source string
	nodes  []templateNode
}

// Source returns the original template text.
func (t *Template) Source() string { return t.source }

// Variables returns every variable name the template references, in first
// reference order.
func (t *Template) Variables() []string {
	seen := make(map[string]struct{})
	var names []string
	var walk func(nodes []templateNode)
	walk = func(nodes []templateNode) {
		for _, node := range nodes {
			if node.kind == nodeLiteral {
				continue
			}
			if _, dup := seen[node.text]; !dup {
				seen[node.text] = struct{}{}
				names = append(names, node.text)
			}
			walk(node.body)
		}
	}
	walk(t.nodes)
	return names
}

// Render expands the template. Placeholders resolve from vars; a missing or
// empty variable renders as "n/a". A conditional block contributes its body
// only when its variable is present and non-empty.
func (t *Template) Render(vars map[string]string) string {
	var out strings.Builder
	renderNodes(&out, t.nodes, vars)
	return out.String()
}

func renderNodes(out *strings.Builder, nodes []templateNode, vars map[string]string) {
	for _, node := range nodes {
		switch node.kind {
		case nodeLiteral:
			out.WriteString(node.text)
		case nodePlaceholder:
			value, ok := vars[node.text]
			if !ok || value == "" {
				value = missingValue
			}
			out.WriteString(value)
		case nodeConditional:
			if vars[node.text] != "" {
				renderNodes(out, node.body, vars)
			}
		}
	}
}

type templateToken struct {
	kind templateTokenKind
	text string
}

type templateTokenKind int

const (
	tokenLiteral templateTokenKind = iota
	tokenPlaceholder
	tokenIfOpen
	tokenIfClose
)

// ParseTemplate parses template text via straightforward recursive descent
// over a token stream of literals, placeholders, and conditional tags.
func ParseTemplate(text string) (*Template, error) {
	tokens, err := lexTemplate(text)
	if err != nil {
		return nil, err
	}

	nodes, rest, err := parseNodes(tokens, false)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("unmatched {{/if}} tag")
	}
	return &Template{source: text, nodes: nodes}, nil
}

// parseNodes consumes tokens until the stream ends or, inside a conditional
// body, until the matching close tag. It returns the unconsumed remainder.
func parseNodes(tokens []templateToken, inBlock bool) ([]templateNode, []templateToken, error) {
	var nodes []templateNode
	for len(tokens) > 0 {
		token := tokens[0]
		switch token.kind {
		case tokenLiteral:
			nodes = append(nodes, templateNode{kind: nodeLiteral, text: token.text})
			tokens = tokens[1:]
		case tokenPlaceholder:
			nodes = append(nodes, templateNode{kind: nodePlaceholder, text: token.text})
			tokens = tokens[1:]
		case tokenIfOpen:
			if inBlock {
				return nil, nil, fmt.Errorf("nested {{#if %s}} blocks are not supported", token.text)
			}
			body, rest, err := parseNodes(tokens[1:], true)
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0].kind != tokenIfClose {
				return nil, nil, fmt.Errorf("unclosed {{#if %s}} block", token.text)
			}
			nodes = append(nodes, templateNode{kind: nodeConditional, text: token.text, body: body})
			tokens = rest[1:]
		case tokenIfClose:
			if !inBlock {
				return nil, nil, errors.New("unmatched {{/if}} tag")
			}
			return nodes, tokens, nil
		}
	}
	if inBlock {
		return nil, nil, errors.New("unclosed {{#if}} block")
	}
	return nodes, tokens, nil
}

// lexTemplate splits the text into literal runs and {{...}} tags.
func lexTemplate(text string) ([]templateToken, error) {
	var tokens []templateToken
	for len(text) > 0 {
		open := strings.Index(text, "{{")
		if open < 0 {
			tokens = append(tokens, templateToken{kind: tokenLiteral, text: text})
			break
		}
		if open > 0 {
			tokens = append(tokens, templateToken{kind: tokenLiteral, text: text[:open]})
		}
		text = text[open:]
		close := strings.Index(text, "}}")
		if close < 0 {
			return nil, fmt.Errorf("unterminated tag %q", truncateTag(text))
		}
		inner := strings.TrimSpace(text[2:close])
		text = text[close+2:]

		token, err := classifyTag(inner)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func classifyTag(inner string) (templateToken, error) {
	switch {
	case inner == "/if":
		return templateToken{kind: tokenIfClose}, nil
	case strings.HasPrefix(inner, "#if"):
		name := strings.TrimSpace(strings.TrimPrefix(inner, "#if"))
		if !identifierForm.MatchString(name) {
			return templateToken{}, fmt.Errorf("invalid conditional variable %q", name)
		}
		return templateToken{kind: tokenIfOpen, text: name}, nil
	case identifierForm.MatchString(inner):
		return templateToken{kind: tokenPlaceholder, text: inner}, nil
	default:
		return templateToken{}, fmt.Errorf("invalid tag {{%s}}", inner)
	}
}

func truncateTag(text string) string {
	if len(text) > 24 {
		return text[:24] + "..."
	}
	return text
}
