package forum

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractText flattens an HTML fragment into plain text. Link-type posts
// sometimes carry their body only as rendered HTML.
func ExtractText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var text strings.Builder
	collectText(doc, &text)

	// collapse runs of whitespace introduced by the markup
	return strings.Join(strings.Fields(text.String()), " ")
}

// collectText recursively extracts text content from HTML nodes
func collectText(n *html.Node, text *strings.Builder) {
	if n.Type == html.TextNode {
		text.WriteString(n.Data)
		text.WriteString(" ")
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, text)
	}
}
