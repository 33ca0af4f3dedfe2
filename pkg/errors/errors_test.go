package errors

import (
	"errors"
	"testing"
)

func TestErrorUnwrapAndIs(t *testing.T) {
	cause := errors.New("boom")
	e := NewTransportError("send", cause)

	if !errors.Is(e, cause) {
		t.Fatalf("expected errors.Is to find wrapped cause")
	}
	var got *Error
	if !errors.As(e, &got) {
		t.Fatalf("expected errors.As to match *Error")
	}
	if got.Type != ErrorTypeTransport {
		t.Fatalf("Type = %v, want %v", got.Type, ErrorTypeTransport)
	}
}

func TestGetErrorType(t *testing.T) {
	if typ := GetErrorType(NewBlockedError("blocked.example")); typ != ErrorTypeBlocked {
		t.Fatalf("GetErrorType = %v, want Blocked", typ)
	}
	if typ := GetErrorType(errors.New("plain")); typ != "" {
		t.Fatalf("GetErrorType(plain) = %v, want empty", typ)
	}
}

func TestIsTimeoutError(t *testing.T) {
	if !IsTimeoutError(NewIdleTimeoutError("receive")) {
		t.Fatalf("expected IdleTimeout to report as timeout")
	}
	if IsTimeoutError(NewBlockedError("x")) {
		t.Fatalf("expected BlockedError to not report as timeout")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := NewConnectError("example.com", cause)
	if e.Host != "example.com" {
		t.Fatalf("Host = %q", e.Host)
	}
	if e.Error() == "" {
		t.Fatalf("expected non-empty error string")
	}
}
