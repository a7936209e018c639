// Package page wraps the brokerage's HTML pages: parsing with charset
// detection, XPath and CSS lookups, form snapshots and link resolution.
package page

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document is a parsed page together with the URL it was served from.
type Document struct {
	URL  *url.URL
	Root *html.Node
}

// Parse decodes r according to contentType (falling back to <meta> and
// content sniffing, the site serves Shift_JIS) and parses it as HTML.
func Parse(r io.Reader, contentType string, location *url.URL) (*Document, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	root, err := htmlquery.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{URL: location, Root: root}, nil
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(body []byte, contentType string, location *url.URL) (*Document, error) {
	return Parse(bytes.NewReader(body), contentType, location)
}

// Location is the page URL as a string, empty when unknown.
func (d *Document) Location() string {
	if d.URL == nil {
		return ""
	}
	return d.URL.String()
}

// Selection exposes the document to goquery for CSS selectors.
func (d *Document) Selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(d.Root).Selection
}

// FindAll returns every node matching the XPath expression.
func (d *Document) FindAll(expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(d.Root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// First returns the first node matching expr, or a PageStructureError.
func (d *Document) First(expr string) (*html.Node, error) {
	nodes, err := d.FindAll(expr)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &PageStructureError{Selector: expr, URL: d.Location()}
	}
	return nodes[0], nil
}

// StringValue evaluates string(expr) against the document, the XPath string
// value of the first matching node.
func (d *Document) StringValue(expr string) (string, error) {
	compiled, err := xpath.Compile("string(" + expr + ")")
	if err != nil {
		return "", fmt.Errorf("xpath %q: %w", expr, err)
	}
	v, ok := compiled.Evaluate(htmlquery.CreateXPathNavigator(d.Root)).(string)
	if !ok {
		return "", fmt.Errorf("xpath %q: not a string expression", expr)
	}
	return v, nil
}

// Attr returns the attribute value and whether the attribute is present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// CellText is the text content of n with no-break spaces folded into plain
// spaces and surrounding whitespace trimmed.
func CellText(n *html.Node) string {
	return strings.TrimSpace(strings.ReplaceAll(htmlquery.InnerText(n), "\u00a0", " "))
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Literal quotes s as an XPath string literal.
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+p+`"`)
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
