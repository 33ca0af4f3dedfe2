// Package message implements the HTTP message engine (spec §4.2): an
// incremental, chunked reader that extracts header-line, header set, and
// variable-length body from a stream socket under a poll-based idle
// timeout, plus the serializer that reassembles a (possibly modified)
// message for forwarding.
//
// Grounded on the teacher's pkg/client/client.go readHeaders/readBody
// family (bufio + textproto canonicalization, last-write-wins header
// parsing) and pkg/buffer/buffer.go's memory-or-spilled-to-disk storage,
// used here as the Message body type with a hard body-size ceiling added
// (see pkg/buffer) that the teacher's buffer never enforced.
package message

import (
	"io"
	"strconv"

	"cacheproxy/pkg/buffer"
)

// Message is a self-contained HTTP message: a header line, an
// insertion-ordered header set, and an optional body (spec §3).
type Message struct {
	HeaderLine string
	Headers    *Headers
	Body       *buffer.Buffer // nil means an empty body
}

// New returns an empty message ready for Headers.Set and SetBody calls.
func New(headerLine string) *Message {
	return &Message{
		HeaderLine: headerLine,
		Headers:    NewHeaders(),
	}
}

// BodyLen returns the authoritative body length: 0 if Body is nil.
func (m *Message) BodyLen() int64 {
	if m.Body == nil {
		return 0
	}
	return m.Body.Size()
}

// SetBody replaces the message body with the given bytes, reconciling
// Content-Length to match (spec §4.2 "reconcile Content-Length with the
// actual body extent").
func (m *Message) SetBody(data []byte) error {
	if m.Body != nil {
		m.Body.Close()
	}
	m.Body = buffer.New(buffer.DefaultMemoryLimit)
	if len(data) > 0 {
		if _, err := m.Body.Write(data); err != nil {
			return err
		}
	}
	m.reconcileContentLength()
	return nil
}

// reconcileContentLength keeps the Content-Length header authoritative on
// the body's actual byte extent (spec §4.2 Send).
func (m *Message) reconcileContentLength() {
	m.Headers.Set("Content-Length", strconv.FormatInt(m.BodyLen(), 10))
}

// Close releases any on-disk resources backing the body.
func (m *Message) Close() error {
	if m.Body == nil {
		return nil
	}
	return m.Body.Close()
}

// BodyReader returns a fresh reader over the body, or an empty reader if
// there is none.
func (m *Message) BodyReader() (io.ReadCloser, error) {
	if m.Body == nil {
		return io.NopCloser(noBytes{}), nil
	}
	return m.Body.Reader()
}

type noBytes struct{}

func (noBytes) Read(p []byte) (int, error) { return 0, io.EOF }
