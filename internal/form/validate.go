// internal/form/validate.go
//
// Forms: decoding and validation of posted input.
//
// Context
//   Handlers declare a typed input struct with `form` tags for field names
//   and `validate` tags for rules.  Decode checks the CSRF token, copies
//   the posted values into the struct (trimmed, weakly typed), and runs
//   go-playground/validator over it.  Rule failures become []ErrorField so
//   templates can highlight exact issues.
//
//   Real checks live in the API.  These rules only spare the user a round
//   trip for obvious mistakes.
//
// Workflow
//   •  Decode(r, &in) → nil, a validation error, or a parse error.
//   •  IsValidationError(err) / Fields(err) in the handler.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/yanizio/jobboard/internal/session"
)

// maxMemory bounds multipart parsing held in memory; larger files spill to
// temporary files.
const maxMemory = 8 << 20

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure so the template can render
// a field-level message.  Name is empty for form-level problems.
type ErrorField struct {
	Name    string // field name
	Message string // user-facing message
}

// validationError wraps []ErrorField and satisfies the error interface.
//
// It allows callers to distinguish user input errors from system failures via
// errors.As / IsValidationError.
type validationError struct{ Fields []ErrorField }

func (ve validationError) Error() string { return "form validation failed" }

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// Fields returns the field errors carried by err, or nil.
func Fields(err error) []ErrorField {
	var ve validationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Invalid builds a validation error by hand, for rules that depend on state
// outside the form.
func Invalid(fields ...ErrorField) error { return validationError{Fields: fields} }

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses r (urlencoded or multipart), verifies the CSRF token against
// the browser's session id, and fills dst, which must be a pointer to a
// struct.
func Decode(r *http.Request, dst any) error {
	if err := parse(r); err != nil {
		return err
	}
	if tok := r.PostFormValue("csrf_token"); tok == "" || !VerifyToken(tok, session.SIDFrom(r.Context())) {
		return validationError{Fields: []ErrorField{{"", "Security token invalid.  Please refresh and try again."}}}
	}
	return DecodeValues(r.PostForm, dst)
}

// DecodeValues fills dst from v and validates it.  No CSRF check; used for
// query-string filters.
func DecodeValues(v url.Values, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "form",
		WeaklyTypedInput: true,
		Result:           dst,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(flatten(v)); err != nil {
		return fmt.Errorf("form decode: %w", err)
	}

	err = validate.Struct(dst)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]ErrorField, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, ErrorField{Name: fe.Field(), Message: message(fe)})
		}
		return validationError{Fields: fields}
	}
	return err
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func parse(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

// flatten keeps single values as strings and repeated keys as slices.
func flatten(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for k, vals := range v {
		switch len(vals) {
		case 0:
		case 1:
			out[k] = strings.TrimSpace(vals[0])
		default:
			trimmed := make([]string, 0, len(vals))
			for _, s := range vals {
				if s = strings.TrimSpace(s); s != "" {
					trimmed = append(trimmed, s)
				}
			}
			out[k] = trimmed
		}
	}
	return out
}

// message maps a failed rule to a user-facing sentence.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters.", fe.Param())
	case "numeric", "number":
		return "Digits only."
	case "eqfield":
		return "Does not match."
	case "oneof":
		return "Choose one of the listed options."
	case "url":
		return "Enter a valid URL."
	default:
		return "Invalid input."
	}
}
