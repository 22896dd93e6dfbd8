package catalog

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
)

// byClass matches descendants of the context node whose class list has the given token.
func byClass(element, class string) *xpath.Expr {
	return xpath.MustCompile(".//" + element + "[contains(concat(' ', normalize-space(@class), ' '), ' " + class + " ')]")
}

// selectText returns the compacted text of the first match, and whether there was a match.
func selectText(n *html.Node, expr *xpath.Expr) (string, bool) {
	node := htmlquery.QuerySelector(n, expr)
	if node == nil {
		return "", false
	}
	return digForText(node), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func digForText(n *html.Node) string {
	if n == nil {
		return ""
	}
	buf := new(bytes.Buffer)
	dig(n, buf)
	return compactWhitespace(buf.String())
}

func dig(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dig(c, buf)
	}
}

func compactWhitespace(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ")
	return s
}
