package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 " +
	"(KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"

func TestEnrich(t *testing.T) {
	var got *RequestInfo
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		if k := ClientKey(r.Context()); k != "203.0.113.9" {
			t.Errorf("ClientKey = %q", k)
		}
	}))

	r := httptest.NewRequest(http.MethodGet, "/s/001?x=1", nil)
	r.Header.Set("User-Agent", iphoneUA)
	r.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.8")
	r.Header.Set("X-Forwarded-For", "garbage, 203.0.113.9, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil {
		t.Fatalf("RequestInfo not attached")
	}
	if got.UA.Device != "Phone" {
		t.Errorf("device = %q, want Phone", got.UA.Device)
	}
	if got.UA.PrimaryLang != "ja-jp" {
		t.Errorf("lang = %q, want ja-jp", got.UA.PrimaryLang)
	}
	if got.UA.IsBot {
		t.Errorf("iPhone Safari flagged as bot")
	}
	if got.URL.Path != "/s/001" {
		t.Errorf("path = %q", got.URL.Path)
	}
}

func TestClientIP_Fallbacks(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.4:5555"
	if ip := clientIP(r); ip.String() != "192.0.2.4" {
		t.Errorf("RemoteAddr fallback = %v", ip)
	}
	r.Header.Set("X-Real-Ip", " 198.51.100.2 ")
	if ip := clientIP(r); ip.String() != "198.51.100.2" {
		t.Errorf("X-Real-Ip = %v", ip)
	}
}

func TestClientKey_WithoutMiddleware(t *testing.T) {
	if k := ClientKey(httptest.NewRequest(http.MethodGet, "/", nil).Context()); k != "unknown" {
		t.Errorf("ClientKey = %q, want unknown", k)
	}
}

func TestInitGeo(t *testing.T) {
	if err := InitGeo(""); err != nil {
		t.Fatalf("empty path should disable geo, got %v", err)
	}
	if err := InitGeo(t.TempDir() + "/missing.mmdb"); err == nil {
		t.Fatalf("missing DB should fail")
	}
	CloseGeo()
}

func TestPrimaryLang(t *testing.T) {
	if got := primaryLang("en-US;q=0.8, ja"); got != "en-us" {
		t.Errorf("primaryLang = %q", got)
	}
}

func TestClientIP_ForwardedChain(t *testing.T) {
	cases := []struct {
		xff, want string
	}{
		{"198.51.100.77, 203.0.113.9, 10.0.0.1", "203.0.113.9"}, // spoofed left hop ignored
		{"203.0.113.9", "203.0.113.9"},
		{"192.168.1.20, 10.0.0.1", "192.168.1.20"}, // all internal → left-most
		{"garbage", "192.0.2.4"},                    // nothing parseable → RemoteAddr
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.4:5555"
		r.Header.Set("X-Forwarded-For", tc.xff)
		if ip := clientIP(r); ip.String() != tc.want {
			t.Errorf("xff %q → %v, want %s", tc.xff, ip, tc.want)
		}
	}
}
