// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Cross-field rules that tags cannot express live in `crossCheck`.
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

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	return crossCheck(c)
}

func crossCheck(c *Config) error {
	if c.Storage.Endpoint != "" {
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("storage.endpoint set without access_key / secret_key")
		}
		if c.Storage.PublicBaseURL == "" {
			return errors.New("storage.endpoint set without public_base_url")
		}
	}
	if c.Board.RateLimit > 0 && c.Redis.Addr == "" {
		return errors.New("board.rate_limit requires redis.addr")
	}
	return nil
}
