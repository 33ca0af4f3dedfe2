package message

import (
	"io"
	"net"
	"testing"

	cperrors "cacheproxy/pkg/errors"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	msg := New("GET / HTTP/1.1")
	msg.Headers.Set("Host", "example.com")
	if err := msg.SetBody([]byte("HELLO")); err != nil {
		t.Fatalf("SetBody: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- Send(client, msg) }()

	got, err := Receive(server)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.HeaderLine != "GET / HTTP/1.1" {
		t.Fatalf("HeaderLine = %q", got.HeaderLine)
	}
	if h, _ := got.Headers.Get("Host"); h != "example.com" {
		t.Fatalf("Host header = %q", h)
	}
	if got.BodyLen() != 5 {
		t.Fatalf("BodyLen() = %d, want 5", got.BodyLen())
	}
	r, err := got.BodyReader()
	if err != nil {
		t.Fatalf("BodyReader: %v", err)
	}
	defer r.Close()
	body, _ := io.ReadAll(r)
	if string(body) != "HELLO" {
		t.Fatalf("body = %q, want HELLO", body)
	}
}

func TestReceiveMissingContentLengthIsZeroBody(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte("GET / HTTP/1.1\r\nHost: example\r\n\r\n"))
	}()

	got, err := Receive(server)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.BodyLen() != 0 {
		t.Fatalf("BodyLen() = %d, want 0", got.BodyLen())
	}
	if cl, ok := got.Headers.Get("Content-Length"); !ok || cl != "0" {
		t.Fatalf("Content-Length = %q, %v, want 0 true", cl, ok)
	}
}

func TestReceiveHeaderTooLarge(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		big := make([]byte, 9000)
		for i := range big {
			big[i] = 'a'
		}
		client.Write([]byte("GET /" + string(big) + " HTTP/1.1\r\n\r\n"))
	}()

	_, err := Receive(server)
	if cperrors.GetErrorType(err) != cperrors.ErrorTypeHeaderTooBig {
		t.Fatalf("err = %v, want HeaderTooBig", err)
	}
}

func TestReceivePeerClosedBeforeAnyBytes(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	client.Close()

	_, err := Receive(server)
	if cperrors.GetErrorType(err) != cperrors.ErrorTypePeerClosed {
		t.Fatalf("err = %v, want PeerClosed", err)
	}
}
