package blocklist

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBlocklist(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocklist")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	for _, l := range lines {
		f.WriteString(l + "\n")
	}
	return path
}

func TestLoadMissingFileYieldsEmptySet(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist"), discardLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
	if s.Check("anything") {
		t.Fatalf("expected no host to be blocked")
	}
}

func TestLoadChecksIPv4Literal(t *testing.T) {
	path := writeBlocklist(t, "# comment", "", "127.0.0.1")
	s, err := Load(path, discardLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Check("127.0.0.1") {
		t.Fatalf("expected 127.0.0.1 to be blocked")
	}
	if s.Check("10.0.0.1") {
		t.Fatalf("expected unrelated address to not be blocked")
	}
}

func TestCheckOnNilSetIsFalse(t *testing.T) {
	var s *Set
	if s.Check("anything") {
		t.Fatalf("nil set must never block")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() on nil set = %d, want 0", s.Len())
	}
}
