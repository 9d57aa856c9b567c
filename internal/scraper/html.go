package scraper

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is an anchor found on a listing page
type Link struct {
	URL  string
	Text string
}

// skipURLParts marks links that never lead to an HTML opportunity page
var skipURLParts = []string{
	"logout", "login", "register", "#", "javascript",
	".pdf", ".doc", ".docx", ".zip", ".jpg", ".png", ".gif",
	"mailto:", "tel:", "ftp:",
}

// contentSelectors are tried in order; the first element found holds the page text
var contentSelectors = []string{
	".content", ".main-content", ".post-content", ".entry-content",
	"article", ".article", "main",
}

// ExtractLinks returns the unique anchors of doc, resolved against base.
// Anchors with visible text of 3 characters or fewer are ignored.
func ExtractLinks(doc *html.Node, base *url.URL) []Link {
	var links []Link
	seen := make(map[string]bool)

	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}

		href := strings.TrimSpace(attr(n, "href"))
		text := nodeText(n)
		if href == "" || len([]rune(text)) <= 3 {
			return false
		}

		ref, err := url.Parse(href)
		if err != nil {
			return false
		}
		full := base.ResolveReference(ref).String()
		if skipLink(full) || seen[full] {
			return false
		}

		seen[full] = true
		links = append(links, Link{URL: full, Text: text})
		return false
	})

	return links
}

func skipLink(u string) bool {
	lower := strings.ToLower(u)
	for _, part := range skipURLParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// PageText returns the readable text of doc: the first content container
// when one exists, otherwise the whole document, truncated to limit runes.
func PageText(doc *html.Node, limit int) string {
	var text string
	for _, sel := range contentSelectors {
		if n := selectFirst(doc, sel); n != nil {
			text = nodeText(n)
			break
		}
	}
	if text == "" {
		text = nodeText(doc)
	}

	runes := []rune(text)
	if limit > 0 && len(runes) > limit {
		text = strings.TrimSpace(string(runes[:limit]))
	}
	return text
}

// selectFirst supports the two selector forms the page layouts need:
// ".class" and a bare tag name.
func selectFirst(doc *html.Node, sel string) *html.Node {
	var found *html.Node
	match := func(n *html.Node) bool {
		if class, ok := strings.CutPrefix(sel, "."); ok {
			return hasClass(n, class)
		}
		return n.Data == sel
	}

	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})

	return found
}

// nodeText joins the text nodes under n with single spaces, skipping
// script and style content.
func nodeText(n *html.Node) string {
	var parts []string
	walk(n, func(c *html.Node) bool {
		switch c.Type {
		case html.ElementNode:
			return c.DataAtom != atom.Script && c.DataAtom != atom.Style
		case html.TextNode:
			if s := strings.TrimSpace(c.Data); s != "" {
				parts = append(parts, s)
			}
		}
		return true
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and its descendants depth-first; visit returns false to
// skip a node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}
