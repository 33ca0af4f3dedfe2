package message

import (
	"errors"
	"io"
	"net"
	"strings"

	"cacheproxy/pkg/connio"
)

// Send serializes and writes the message to conn: the header line (with a
// trailing CRLF added if not already present), each header as
// "key: value\r\n", a blank line, then the body if Content-Length > 0
// (spec §4.2 Send). Content-Length is reconciled against the body's
// actual extent before anything is written.
func Send(conn net.Conn, m *Message) error {
	m.reconcileContentLength()

	var head strings.Builder
	head.WriteString(m.HeaderLine)
	if !strings.HasSuffix(m.HeaderLine, "\r\n") {
		head.WriteString("\r\n")
	}

	m.Headers.Each(func(k, v string) {
		head.WriteString(k)
		head.WriteString(": ")
		head.WriteString(v)
		head.WriteString("\r\n")
	})
	head.WriteString("\r\n")

	if err := connio.SendAll(conn, []byte(head.String())); err != nil {
		return err
	}

	if m.BodyLen() == 0 {
		return nil
	}

	r, err := m.BodyReader()
	if err != nil {
		return err
	}
	defer r.Close()

	buf := make([]byte, 32*1024)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if werr := connio.SendAll(conn, buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return rerr
		}
	}
}
