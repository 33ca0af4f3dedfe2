// Package response implements the response model of spec §4.4: status-line
// parsing, the origin fetch, and synthetic error responses.
//
// Grounded on the teacher's parseStatusLine (pkg/client/client.go) for the
// status-line grammar and its version/code/reason extraction idiom.
package response

import (
	"context"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"

	"cacheproxy/pkg/connio"
	cperrors "cacheproxy/pkg/errors"
	"cacheproxy/pkg/message"
	"cacheproxy/pkg/request"
	"cacheproxy/pkg/timing"

	"golang.org/x/net/proxy"
)

// statusLineRE mirrors spec §4.4's grammar:
//
//	(HTTP/digits.digits)? \s+ (digits) \s+ (.*)
var statusLineRE = regexp.MustCompile(`^(?:(HTTP/[0-9]+(?:\.[0-9]+)?)\s+)?([0-9]+)\s+(.*)$`)

// Response is the parsed, proxy-relevant view of an origin message (spec §3).
type Response struct {
	Version    string
	StatusCode int
	Reason     string

	Message *message.Message
}

// Parse extracts a Response from msg's status line.
func Parse(msg *message.Message) (*Response, error) {
	m := statusLineRE.FindStringSubmatch(msg.HeaderLine)
	if m == nil {
		return nil, cperrors.NewParseError("malformed status line: "+msg.HeaderLine, nil)
	}

	code, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, cperrors.NewParseError("invalid status code", err)
	}

	version := m[1]
	if version == "" {
		version = "HTTP/1.1"
	}

	return &Response{
		Version:    version,
		StatusCode: code,
		Reason:     m[3],
		Message:    msg,
	}, nil
}

// SynthesizeError builds a Response with the given status and reason,
// Content-Length set to len(reason), and reason as the body (spec §4.4
// synthesize_error).
func SynthesizeError(status int, reason string) (*Response, error) {
	msg := message.New("")
	if err := msg.SetBody([]byte(reason)); err != nil {
		return nil, err
	}
	return &Response{
		Version:    "HTTP/1.1",
		StatusCode: status,
		Reason:     reason,
		Message:    msg,
	}, nil
}

// Send serializes "version SP status SP reason" as the header line, then
// the headers and body via the message engine (spec §4.4 send).
func Send(conn net.Conn, r *Response) error {
	r.Message.HeaderLine = r.Version + " " + strconv.Itoa(r.StatusCode) + " " + r.Reason
	return message.Send(conn, r.Message)
}

// RawBytes returns the serialized response (status line, headers, body) for
// persisting into the cache, without writing to any socket.
func RawBytes(r *Response) ([]byte, error) {
	r.Message.HeaderLine = r.Version + " " + strconv.Itoa(r.StatusCode) + " " + r.Reason

	var b strings.Builder
	b.WriteString(r.Message.HeaderLine)
	b.WriteString("\r\n")
	r.Message.Headers.Each(func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	})
	b.WriteString("\r\n")

	out := []byte(b.String())
	if r.Message.BodyLen() > 0 {
		reader, err := r.Message.BodyReader()
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		buf := make([]byte, r.Message.BodyLen())
		if _, err := io.ReadFull(reader, buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	return out, nil
}

// Fetch opens an origin connection to req.Host:req.EffectivePort(), sends
// the (already rewritten) request message, receives one response message
// with the message engine, closes the connection, and returns a Response
// (spec §4.4 fetch).
func Fetch(ctx context.Context, dialer proxy.Dialer, req *request.Request, timer *timing.Timer) (*Response, error) {
	conn, err := dialOrigin(ctx, dialer, req, timer)
	if err != nil {
		return nil, cperrors.NewFetchFailedError(req.Host, err)
	}
	defer conn.Close()

	if err := message.Send(conn, req.Message); err != nil {
		return nil, cperrors.NewFetchFailedError(req.Host, err)
	}

	if timer != nil {
		timer.StartTTFB()
	}
	respMsg, err := message.Receive(conn)
	if timer != nil {
		timer.EndTTFB()
	}
	if err != nil {
		return nil, cperrors.NewFetchFailedError(req.Host, err)
	}

	if isChunked(respMsg) {
		return nil, cperrors.NewFramingError("chunked Transfer-Encoding from origin is not supported")
	}

	resp, err := Parse(respMsg)
	if err != nil {
		return nil, cperrors.NewFetchFailedError(req.Host, err)
	}
	return resp, nil
}

func dialOrigin(ctx context.Context, dialer proxy.Dialer, req *request.Request, timer *timing.Timer) (*connio.Conn, error) {
	if timer != nil {
		timer.StartDNS()
		timer.StartTCP()
	}
	conn, err := connio.Dial(ctx, dialer, req.Host, req.EffectivePort())
	if timer != nil {
		timer.EndDNS()
		timer.EndTCP()
	}
	return conn, err
}

func isChunked(m *message.Message) bool {
	v, ok := m.Headers.Get("Transfer-Encoding")
	return ok && strings.Contains(strings.ToLower(v), "chunked")
}
