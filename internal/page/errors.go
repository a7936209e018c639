package page

import "fmt"

// PageStructureError reports that an anchor, form or row the brokerage
// normally serves was absent from a page.
type PageStructureError struct {
	Selector string
	URL      string
}

func (e *PageStructureError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("page structure: nothing matches %s", e.Selector)
	}
	return fmt.Sprintf("page structure: nothing matches %s on %s", e.Selector, e.URL)
}
