// internal/config/model.go
//
// Typed configuration model for genba.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `GENBA_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "strings"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *secret* portion (`Password`) is
// usually a `vault:` reference and replaces the `{password}` placeholder.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password"`
}

// ResolvedDSN substitutes the password placeholder in the DSN template.
func (d Database) ResolvedDSN() string {
	return strings.ReplaceAll(d.DSN, "{password}", d.Password)
}

//
// Public section
//

// Public configures the anonymous, QR-reachable surface.
type Public struct {
	BaseURL      string `koanf:"base_url"      validate:"required,url"`
	PhotoPreview int    `koanf:"photo_preview" validate:"gte=0,lte=100"`
}

//
// Admin section
//

// Admin holds the bcrypt hash of the shared office passcode and the HMAC
// secret used to sign admin session tokens.
type Admin struct {
	PasscodeHash  string `koanf:"passcode_hash"  validate:"required"`
	SessionSecret string `koanf:"session_secret" validate:"required,min=32"`
}

//
// Poster section
//

// Poster tunes the QR poster PDF.  FontPath is optional; without it the
// poster falls back to a core PDF font, which cannot draw Japanese text.
type Poster struct {
	FontPath    string `koanf:"font_path"`
	Caption     string `koanf:"caption"`
	Attribution string `koanf:"attribution"`
	Timezone    string `koanf:"timezone"`
}

//
// Storage section
//

// Storage configures the S3-compatible object store and the optional local
// archive.  An empty Endpoint disables uploads.
type Storage struct {
	Endpoint      string `koanf:"endpoint"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	Bucket        string `koanf:"bucket"`
	UseSSL        bool   `koanf:"use_ssl"`
	PublicBaseURL string `koanf:"public_base_url" validate:"omitempty,url"`
	ArchiveRoot   string `koanf:"archive_root"`
}

//
// Redis and board sections
//

// Redis is optional; an empty Addr disables the board throttle.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// Board tunes the public bulletin board.  RateLimit is posts per minute per
// client address; zero disables throttling.
type Board struct {
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or GENBA_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Public   Public   `koanf:"public"`
	Admin    Admin    `koanf:"admin"`
	Poster   Poster   `koanf:"poster"`
	Storage  Storage  `koanf:"storage"`
	Redis    Redis    `koanf:"redis"`
	Board    Board    `koanf:"board"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"`
}

// applyDefaults fills optional knobs left blank by YAML and env.
func (c *Config) applyDefaults() {
	if c.Public.PhotoPreview == 0 {
		c.Public.PhotoPreview = 6
	}
	c.Public.BaseURL = strings.TrimRight(c.Public.BaseURL, "/")
	if c.Poster.Attribution == "" {
		c.Poster.Attribution = "Produced by Reglanz"
	}
	if c.Poster.Timezone == "" {
		c.Poster.Timezone = "Asia/Tokyo"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "schedule-pdfs"
	}
}
