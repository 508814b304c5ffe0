// Package toolkit provides ready-made custom tools that prompt definitions
// can declare by name. Each tool ships its argument schema and a registration
// helper; fetch failures are returned as tool result text so the model can
// react instead of killing the run.
package toolkit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/promptfile/promptfile/tooling/registry"
)

const (
	webscrapeTimeout = 5 * time.Second
	webscrapeMaxBody = 10 << 20

	// Some sites reject requests without a browser user agent.
	webscrapeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"
)

// Webscrape builds the webscrape tool descriptor: it fetches a URL and
// returns the page as plain text. A nil client uses a default with a short
// timeout.
func Webscrape(client *http.Client, logger *slog.Logger) registry.Descriptor {
	if client == nil {
		client = &http.Client{Timeout: webscrapeTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return registry.Descriptor{
		Name:        "webscrape",
		Kind:        registry.KindCustom,
		Description: "Fetch a web page and return its content as plain text.",
		Schema: registry.ArgumentSchema{Fields: []registry.Field{
			{Name: "url", Type: registry.FieldString, Description: "The URL of the website to scrape", Required: true},
			{Name: "ignore_links", Type: registry.FieldBoolean, Description: "Drop link targets from the text. Use false to receive the URLs of nested pages to scrape."},
			{Name: "max_length", Type: registry.FieldInteger, Description: "Maximum length of the text to return", Minimum: floatPtr(1)},
		}},
		Invoke: func(ctx context.Context, arguments map[string]any) (string, error) {
			url, _ := arguments["url"].(string)
			ignoreLinks, _ := arguments["ignore_links"].(bool)
			maxLength := 0
			if raw, ok := arguments["max_length"].(float64); ok {
				maxLength = int(raw)
			}

			request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Sprintf("Error fetching the url %s - %v", url, err), nil
			}
			request.Header.Set("User-Agent", webscrapeUserAgent)

			response, err := client.Do(request)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return "", ctxErr
				}
				logger.Warn("webscrape fetch failed", "url", url, "error", err)
				return fmt.Sprintf("Error fetching the url %s - %v", url, err), nil
			}
			defer response.Body.Close()

			body, err := io.ReadAll(io.LimitReader(response.Body, webscrapeMaxBody))
			if err != nil {
				return fmt.Sprintf("Error fetching the url %s - %v", url, err), nil
			}
			logger.Info("webscrape fetched", "url", url, "status", response.StatusCode)

			text := htmlToText(string(body), ignoreLinks)
			if maxLength > 0 && len(text) > maxLength {
				text = text[:maxLength]
			}
			return text, nil
		},
	}
}

var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"head":     {},
	"noscript": {},
	"template": {},
}

// htmlToText flattens an HTML document to whitespace-normalized text. With
// ignoreLinks false, anchor targets are kept inline as "text (href)" so the
// model can pick nested pages to scrape next.
func htmlToText(document string, ignoreLinks bool) string {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return document
	}

	var builder strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if _, skip := skippedElements[node.Data]; skip {
				return
			}
		}
		if node.Type == html.TextNode {
			text := strings.TrimSpace(node.Data)
			if text != "" {
				builder.WriteString(text)
				builder.WriteString(" ")
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode {
			switch node.Data {
			case "a":
				if !ignoreLinks {
					if href := attribute(node, "href"); href != "" {
						builder.WriteString("(" + href + ") ")
					}
				}
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				builder.WriteString("\n")
			}
		}
	}
	walk(root)

	return collapseBlankLines(builder.String())
}

func attribute(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func floatPtr(v float64) *float64 { return &v }
