// internal/form/submit.go
//
// Forms: view-facing helpers.
//
// Context
//   Templates need the CSRF token and a way to look up one field's error.
//   State carries both so each page can embed it as `.Form`.
//
//------------------------------------------------------------------------------

package form

import "net/http"

// State is what a template needs to render a form.
type State struct {
	CSRF   string
	Errors []ErrorField
	Values map[string]string
}

// NewState issues a fresh CSRF token for r's browser.  err may be nil or a
// validation error returned by Decode; any other error becomes a form-level
// message.
func NewState(r *http.Request, err error, values map[string]string) (State, error) {
	tok, terr := TokenFor(r)
	if terr != nil {
		return State{}, terr
	}
	st := State{CSRF: tok, Values: values}
	switch {
	case err == nil:
	case IsValidationError(err):
		st.Errors = Fields(err)
	default:
		st.Errors = []ErrorField{{Message: err.Error()}}
	}
	return st, nil
}

// Error returns the message for field name, or "".  Name "" selects
// form-level messages.
func (s State) Error(name string) string {
	for _, e := range s.Errors {
		if e.Name == name {
			return e.Message
		}
	}
	return ""
}

// Value returns the echoed value for field name.
func (s State) Value(name string) string { return s.Values[name] }
