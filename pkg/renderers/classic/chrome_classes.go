package classic

import "strings"

// ChromeClasses names the CSS classes applied to form chrome. Empty
// entries fall back to the formflow defaults so themes can override a
// single class without restating the rest.
type ChromeClasses struct {
	Form    string
	Header  string
	Errors  string
	Grid    string
	Field   string
	Label   string
	Control string
	Help    string
	Error   string
	Static  string
	Actions string
}

// DefaultChromeClasses returns the stock formflow class names.
func DefaultChromeClasses() ChromeClasses {
	return ChromeClasses{
		Form:    "formflow-form",
		Header:  "formflow-header",
		Errors:  "formflow-errors",
		Grid:    "formflow-grid",
		Field:   "formflow-field",
		Label:   "formflow-label",
		Control: "formflow-control",
		Help:    "formflow-help",
		Error:   "formflow-error",
		Static:  "formflow-static",
		Actions: "formflow-actions",
	}
}

func (c ChromeClasses) merge(over ChromeClasses) ChromeClasses {
	pick := func(base, value string) string {
		if strings.TrimSpace(value) != "" {
			return value
		}
		return base
	}
	return ChromeClasses{
		Form:    pick(c.Form, over.Form),
		Header:  pick(c.Header, over.Header),
		Errors:  pick(c.Errors, over.Errors),
		Grid:    pick(c.Grid, over.Grid),
		Field:   pick(c.Field, over.Field),
		Label:   pick(c.Label, over.Label),
		Control: pick(c.Control, over.Control),
		Help:    pick(c.Help, over.Help),
		Error:   pick(c.Error, over.Error),
		Static:  pick(c.Static, over.Static),
		Actions: pick(c.Actions, over.Actions),
	}
}

func (c ChromeClasses) contextMap() map[string]string {
	return map[string]string{
		"form":    c.Form,
		"header":  c.Header,
		"errors":  c.Errors,
		"grid":    c.Grid,
		"actions": c.Actions,
	}
}
