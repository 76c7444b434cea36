// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree over `Defaults()`.  Any tag mismatch or
// validation error aborts startup, ensuring the binary never runs with
// partial, malformed, or missing configuration.
//
// Besides the built-in rules (`required`, `url`, `oneof`, `required_if`),
// we add one cross-field check: the session hash key and the CSRF key must
// differ, otherwise a leaked form token would also sign session cookies.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

// ErrSharedKeys is returned when session.hash_key equals session.csrf_key.
var ErrSharedKeys = errors.New("config: session.hash_key and session.csrf_key must differ")

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Session.HashKey == c.Session.CSRFKey {
		return ErrSharedKeys
	}
	return nil
}
