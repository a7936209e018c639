package page

import (
	"maps"
)

// Form is a snapshot of a form's pre-filled input values, keyed by name.
// Inputs without a value attribute are not submitted, so a later one of the
// same name clears an earlier value. Unnamed inputs are counted and dropped.
type Form struct {
	Action  string
	Fields  map[string]string
	Unnamed int
}

// ExtractForm snapshots //form[@name=name] and every input beneath a form of
// that name.
func ExtractForm(doc *Document, name string) (*Form, error) {
	formExpr := "//form[@name=" + Literal(name) + "]"
	form, err := doc.First(formExpr)
	if err != nil {
		return nil, err
	}
	inputs, err := doc.FindAll(formExpr + "//input")
	if err != nil {
		return nil, err
	}

	action, _ := Attr(form, "action")
	snapshot := &Form{Action: action, Fields: make(map[string]string, len(inputs))}
	for _, in := range inputs {
		key, ok := Attr(in, "name")
		if !ok {
			snapshot.Unnamed++
			continue
		}
		value, ok := Attr(in, "value")
		if !ok {
			delete(snapshot.Fields, key)
			continue
		}
		snapshot.Fields[key] = value
	}
	return snapshot, nil
}

// SelectOptions returns the submitted values of the options of the select
// control named name, in document order. An option without a value
// attribute submits its text, as browsers do.
func SelectOptions(doc *Document, name string) ([]string, error) {
	expr := "//select[@name=" + Literal(name) + "]//option"
	nodes, err := doc.FindAll(expr)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &PageStructureError{Selector: expr, URL: doc.Location()}
	}
	values := make([]string, 0, len(nodes))
	for _, n := range nodes {
		v, ok := Attr(n, "value")
		if !ok {
			v = CellText(n)
		}
		values = append(values, v)
	}
	return values, nil
}

// Remove deletes the named fields; absent names are ignored.
func (f *Form) Remove(names ...string) {
	for _, n := range names {
		delete(f.Fields, n)
	}
}

// Merge copies overrides over the snapshot.
func (f *Form) Merge(overrides map[string]string) {
	maps.Copy(f.Fields, overrides)
}

// Values returns a copy of the fields ready to be posted.
func (f *Form) Values() map[string]string {
	return maps.Clone(f.Fields)
}
