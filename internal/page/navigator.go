package page

import (
	"fmt"
	"net/url"
)

// Navigator resolves links on a page against the host that serves the
// logged-in pages.
type Navigator struct {
	doc  *Document
	base *url.URL
}

func NewNavigator(doc *Document, base *url.URL) *Navigator {
	return &Navigator{doc: doc, base: base}
}

// AltContains selects anchors with a child element whose alt attribute
// contains text. The site labels its image-button links this way.
func AltContains(text string) string {
	return "//a[*[contains(@alt," + Literal(text) + ")]]"
}

// AreaTitle selects image-map areas by exact title.
func AreaTitle(title string) string {
	return "//area[@title=" + Literal(title) + "]"
}

// FindLinkByAltContains resolves the first anchor matched by AltContains.
func (n *Navigator) FindLinkByAltContains(text string) (*url.URL, error) {
	return n.Resolve(AltContains(text))
}

// FindAreaByTitle resolves the first area matched by AreaTitle.
func (n *Navigator) FindAreaByTitle(title string) (*url.URL, error) {
	return n.Resolve(AreaTitle(title))
}

// Resolve takes the href of the first node matching expr and resolves it
// against the base host. Missing nodes or hrefs are PageStructureErrors.
func (n *Navigator) Resolve(expr string) (*url.URL, error) {
	node, err := n.doc.First(expr)
	if err != nil {
		return nil, err
	}
	href, ok := Attr(node, "href")
	if !ok {
		return nil, &PageStructureError{Selector: expr + "/@href", URL: n.doc.Location()}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parse href %q: %w", href, err)
	}
	return n.base.ResolveReference(ref), nil
}
