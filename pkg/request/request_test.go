package request

import (
	"testing"

	"cacheproxy/pkg/message"
)

func parseLine(t *testing.T, headerLine string, headers map[string]string) *Request {
	t.Helper()
	msg := message.New(headerLine)
	for k, v := range headers {
		msg.Headers.Set(k, v)
	}
	req, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse(%q): %v", headerLine, err)
	}
	return req
}

func TestParseAbsoluteFormWithHostHeaderOverride(t *testing.T) {
	req := parseLine(t, "GET http://origin.example/path HTTP/1.1", map[string]string{
		"Host": "override.example:8080",
	})
	if req.Host != "override.example" {
		t.Fatalf("Host = %q, want override.example", req.Host)
	}
	if req.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", req.Port)
	}
	if req.Path != "/path" {
		t.Fatalf("Path = %q, want /path", req.Path)
	}
}

func TestParseHostHeaderFillsMissingAbsoluteFormHost(t *testing.T) {
	req := parseLine(t, "GET /path HTTP/1.1", map[string]string{
		"Host": "example.com",
	})
	if req.Host != "example.com" {
		t.Fatalf("Host = %q, want example.com", req.Host)
	}
	if req.EffectivePort() != 80 {
		t.Fatalf("EffectivePort() = %d, want 80", req.EffectivePort())
	}
}

func TestParseDefaultsPathToRoot(t *testing.T) {
	req := parseLine(t, "GET http://example.com HTTP/1.1", nil)
	if req.Path != "/" {
		t.Fatalf("Path = %q, want /", req.Path)
	}
}

func TestParseNormalizesHostCase(t *testing.T) {
	req := parseLine(t, "GET http://Example.COM/ HTTP/1.1", nil)
	if req.Host != "example.com" {
		t.Fatalf("Host = %q, want lowercased", req.Host)
	}
}

func TestParseMalformedRequestLine(t *testing.T) {
	msg := message.New("GARBAGE NOT A REQUEST")
	if _, err := Parse(msg); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCacheableRequiresGetHostPathVersion(t *testing.T) {
	req := parseLine(t, "GET http://example.com/a HTTP/1.1", nil)
	if !req.Cacheable() {
		t.Fatalf("expected cacheable")
	}
	if req.Key() != "example.com/a" {
		t.Fatalf("Key() = %q, want example.com/a", req.Key())
	}
}

func TestKeyEmptyWhenNotCacheable(t *testing.T) {
	msg := message.New("GET  HTTP/1.1")
	req, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	req.Host = ""
	if req.Key() != "" {
		t.Fatalf("Key() = %q, want empty", req.Key())
	}
}
