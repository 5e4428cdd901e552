package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
http:
  listen_addr: "127.0.0.1:8080"
database:
  dsn: "genba:{password}@tcp(127.0.0.1:3306)/genba?parseTime=true"
  password: "vault:secret/genba#db_password"
public:
  base_url: "https://genba.example.jp/"
admin:
  passcode_hash: "$2a$10$abcdefghijklmnopqrstuv"
  session_secret: "0123456789abcdef0123456789abcdef"
`

type fakeSecrets struct {
	calls int
	vals  map[string]string
}

func (f *fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	f.calls++
	v, ok := f.vals[path+"#"+key]
	if !ok {
		return "", errors.New("missing secret")
	}
	return v, nil
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLoadFrom_ResolvesVaultAndDefaults(t *testing.T) {
	root := writeRoot(t, testYAML)
	src := &fakeSecrets{vals: map[string]string{"secret/genba#db_password": "s3cret"}}

	cfg, err := loadFrom(context.Background(), root, func() (secretSource, error) { return src, nil })
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}

	if got := cfg.Database.ResolvedDSN(); got != "genba:s3cret@tcp(127.0.0.1:3306)/genba?parseTime=true" {
		t.Fatalf("dsn = %q", got)
	}
	if cfg.Public.BaseURL != "https://genba.example.jp" {
		t.Fatalf("base url not trimmed: %q", cfg.Public.BaseURL)
	}
	if cfg.Public.PhotoPreview != 6 {
		t.Fatalf("photo preview default = %d, want 6", cfg.Public.PhotoPreview)
	}
	if cfg.Poster.Attribution != "Produced by Reglanz" {
		t.Fatalf("attribution default = %q", cfg.Poster.Attribution)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q, want %q", cfg.Paths.Root, root)
	}
	if src.calls != 1 {
		t.Fatalf("vault calls = %d, want 1", src.calls)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	root := writeRoot(t, testYAML)
	t.Setenv("GENBA_HTTP__LISTEN_ADDR", "0.0.0.0:9090")
	src := &fakeSecrets{vals: map[string]string{"secret/genba#db_password": "x"}}

	cfg, err := loadFrom(context.Background(), root, func() (secretSource, error) { return src, nil })
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != "0.0.0.0:9090" {
		t.Fatalf("listen addr = %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	root := writeRoot(t, `
http:
  listen_addr: "127.0.0.1:8080"
database:
  dsn: "x"
public:
  base_url: "not a url"
admin:
  passcode_hash: "h"
  session_secret: "short"
`)
	_, err := loadFrom(context.Background(), root, func() (secretSource, error) {
		t.Fatal("vault must not be contacted without vault: values")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFrom_RateLimitNeedsRedis(t *testing.T) {
	root := writeRoot(t, testYAML+`
board:
  rate_limit: 5
`)
	src := &fakeSecrets{vals: map[string]string{"secret/genba#db_password": "x"}}
	_, err := loadFrom(context.Background(), root, func() (secretSource, error) { return src, nil })
	if err == nil {
		t.Fatal("expected cross-check error")
	}
}
