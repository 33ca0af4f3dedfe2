package buffer

import (
	"io"
	"os"
	"testing"

	"cacheproxy/pkg/constants"
	cperrors "cacheproxy/pkg/errors"
)

func TestBufferStaysInMemoryUnderLimit(t *testing.T) {
	b := New(1024)
	defer b.Close()

	if _, err := b.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if b.IsSpilled() {
		t.Fatalf("expected buffer to stay in memory")
	}
	if b.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", b.Size())
	}
}

func TestBufferSpillsToDisk(t *testing.T) {
	b := New(4)
	defer b.Close()

	if _, err := b.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !b.IsSpilled() {
		t.Fatalf("expected buffer to spill to disk")
	}
	if _, err := os.Stat(b.Path()); err != nil {
		t.Fatalf("spill file missing: %v", err)
	}
}

func TestBufferReaderReturnsWrittenBytes(t *testing.T) {
	for _, limit := range []int64{1024, 4} {
		b := New(limit)
		if _, err := b.Write([]byte("some payload bytes")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		r, err := b.Reader()
		if err != nil {
			t.Fatalf("Reader: %v", err)
		}
		got, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if string(got) != "some payload bytes" {
			t.Fatalf("limit=%d: got %q", limit, got)
		}
		b.Close()
	}
}

func TestBufferCloseRemovesSpillFile(t *testing.T) {
	b := New(1)
	if _, err := b.Write([]byte("spill me")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := b.Path()
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected spill file to be removed, stat err = %v", err)
	}
}

func TestBufferCloseIsIdempotent(t *testing.T) {
	b := New(1024)
	b.Write([]byte("x"))
	if err := b.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestBufferWriteAfterCloseFails(t *testing.T) {
	b := New(1024)
	b.Close()
	if _, err := b.Write([]byte("x")); err == nil {
		t.Fatalf("expected error writing to closed buffer")
	}
}

func TestBufferWriteRejectsOverHardCeiling(t *testing.T) {
	b := New(1024)
	defer b.Close()

	b.size = constants.MaxBodyBytes - 2 // fast-forward without writing GiBs in a test

	_, err := b.Write([]byte("abc"))
	if err == nil {
		t.Fatalf("expected BodyTooBig error, got nil")
	}
	if got := cperrors.GetErrorType(err); got != cperrors.ErrorTypeBodyTooBig {
		t.Fatalf("error type = %q, want %q", got, cperrors.ErrorTypeBodyTooBig)
	}
}
