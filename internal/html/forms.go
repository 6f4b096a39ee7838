// internal/html/forms.go
//
// Form extraction for Layer 2.5 action discovery (spec §4.1/§4.2):
// method, resolved action URL, and the field list (name + input type).

package html

import (
	"net/url"
	"strings"

	xhtml "golang.org/x/net/html"
)

// FormField is one <input>/<select>/<textarea> within a form.
type FormField struct {
	Name string
	Type string // input type attribute, or "select"/"textarea"
}

// Form represents a <form> element's action-relevant shape.
type Form struct {
	Method string // upper-cased, defaults to GET
	Action string // resolved absolute URL, or "" if unresolvable
	Fields []FormField
}

// ExtractForms returns every <form> in the document, with its fields and
// its action URL resolved against baseURL.
func ExtractForms(doc *Document, baseURL string) []Form {
	if doc == nil || doc.Root == nil {
		return nil
	}
	base, _ := url.Parse(baseURL)

	var formNodes []*xhtml.Node
	findElementsByTag(doc.Root, "form", &formNodes)

	out := make([]Form, 0, len(formNodes))
	for _, fn := range formNodes {
		method := "GET"
		action := ""
		for _, a := range fn.Attr {
			switch strings.ToLower(a.Key) {
			case "method":
				if v := strings.ToUpper(strings.TrimSpace(a.Val)); v != "" {
					method = v
				}
			case "action":
				action = strings.TrimSpace(a.Val)
			}
		}

		var fields []FormField
		for _, tag := range []string{"input", "select", "textarea"} {
			var nodes []*xhtml.Node
			findElementsByTag(fn, tag, &nodes)
			for _, n := range nodes {
				name := attrValue(n, "name")
				if name == "" {
					continue
				}
				fieldType := tag
				if tag == "input" {
					if t := attrValue(n, "type"); t != "" {
						fieldType = strings.ToLower(t)
					} else {
						fieldType = "text"
					}
				}
				fields = append(fields, FormField{Name: name, Type: fieldType})
			}
		}

		resolved := resolveHref(base, action)
		if resolved == "" && action == "" && base != nil {
			// No action attribute means "submit to the current URL".
			resolved = base.String()
		}

		out = append(out, Form{
			Method: method,
			Action: resolved,
			Fields: fields,
		})
	}
	return out
}

// HasPasswordField reports whether the form contains a password input,
// used by the §4.3 DOM-heuristics login-page classifier.
func (f Form) HasPasswordField() bool {
	for _, field := range f.Fields {
		if field.Type == "password" {
			return true
		}
	}
	return false
}
