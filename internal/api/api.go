// internal/api/api.go
//
// JSON helpers shared by every component.
//
// Context
// -------
// Handlers speak one dialect: success bodies are whatever the handler
// passes to JSON, failures are {"error": "..."} with a status chosen by
// Error from the domain sentinel the error wraps.  Unknown errors become a
// generic 500 and the detail goes to the log, never to the client.
//
// Notes
// -----
//   • Decode caps bodies at MaxBody and rejects unknown trailing data.
//   • Validate runs go-playground/validator with JSON field names, then
//     reports the first failure as a *site.ValidationError so Error maps
//     it to 400 like every other input problem.
//   • Oxford commas, two spaces after periods.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/board"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/session"
	"github.com/reglanz/genba/internal/site"
	"github.com/reglanz/genba/internal/storage"
)

// MaxBody bounds JSON request bodies.
const MaxBody = 1 << 20

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps v as {"data": v}.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// Status maps err to an HTTP status and a client-safe message.
func Status(err error) (int, string) {
	var ve *site.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, site.ErrNotFound):
		return http.StatusNotFound, "site not found"
	case errors.Is(err, resource.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, photo.ErrNotFound):
		return http.StatusNotFound, "photo not found"
	case errors.Is(err, board.ErrConflict):
		return http.StatusConflict, board.ErrConflict.Error()
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests, "too many posts, please wait a minute"
	case errors.Is(err, session.ErrBadPasscode):
		return http.StatusUnauthorized, "invalid passcode"
	case errors.Is(err, storage.ErrNotConfigured):
		return http.StatusServiceUnavailable, "file storage is not configured"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// Error writes the mapped failure.  5xx responses are logged with the
// request path; 4xx are the client's problem and stay quiet.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Status(err)
	if status >= 500 {
		zap.S().Errorw("request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	JSON(w, status, map[string]string{"error": msg})
}

// Decode reads one JSON value into v and validates it.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	if err := dec.Decode(v); err != nil {
		return site.Invalid("body", "malformed JSON")
	}
	if dec.More() {
		return site.Invalid("body", "unexpected trailing data")
	}
	return Validate(v)
}

// Validate runs struct tags and converts the first failure.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return site.Invalid(fe.Field(), describe(fe))
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("longer than %s characters", fe.Param())
	case "url", "http_url":
		return "must be a URL"
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	default:
		return "invalid (" + fe.Tag() + ")"
	}
}
