// internal/browser/snapshot.go
package browser

import (
	"strings"

	"golang.org/x/net/html"
)

// maxOutlineLen caps the outline handed to planning engines. Anything beyond
// this adds cost without adding signal.
const maxOutlineLen = 4096

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"template": true,
	"svg":      true,
}

// Outline reduces a serialized document to a compact, line-oriented text
// sketch: visible text plus one-line descriptions of interactive elements.
// Malformed markup degrades gracefully since the tokenizer-based parser never
// fails on real-world HTML.
func Outline(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// html.Parse only errors on reader failure; a string reader cannot.
		return ""
	}

	var lines []string
	walkOutline(doc, &lines)

	outline := strings.Join(lines, "\n")
	if len(outline) > maxOutlineLen {
		outline = outline[:maxOutlineLen] + "\n[truncated]"
	}
	return outline
}

func walkOutline(n *html.Node, lines *[]string) {
	if n.Type == html.ElementNode {
		if skippedElements[n.Data] {
			return
		}
		if desc := describeElement(n); desc != "" {
			*lines = append(*lines, desc)
			// Interactive elements already include their text.
			if n.Data == "a" || n.Data == "button" || n.Data == "select" {
				return
			}
		}
	}

	if n.Type == html.TextNode {
		if text := collapseSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkOutline(c, lines)
	}
}

// describeElement renders interactive elements as single lines the engine can
// target, e.g. `[input name=email type=email placeholder="Email address"]`.
func describeElement(n *html.Node) string {
	switch n.Data {
	case "a", "button", "input", "select", "textarea", "form", "img":
	default:
		return ""
	}

	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	var sb strings.Builder
	sb.WriteString("[" + n.Data)
	for _, key := range []string{"id", "name", "type", "href", "placeholder", "value", "alt", "aria-label", "role"} {
		if v, ok := attrs[key]; ok && v != "" {
			sb.WriteString(" " + key + "=" + quoteIfSpaced(v))
		}
	}
	if text := collapseSpace(innerText(n)); text != "" {
		sb.WriteString(" text=" + quoteIfSpaced(text))
	}
	sb.WriteString("]")
	return sb.String()
}

func innerText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		} else if c.Type == html.ElementNode && !skippedElements[c.Data] {
			sb.WriteString(innerText(c))
		}
	}
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func quoteIfSpaced(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
