package message

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"cacheproxy/pkg/buffer"
	"cacheproxy/pkg/constants"
	cperrors "cacheproxy/pkg/errors"
)

const crlfcrlf = "\r\n\r\n"

// Receive reads one HTTP message from conn, applying the idle-poll timeout
// and size caps of spec §4.2. It is used both by the worker reading a
// client request and by the response pipeline reading an origin response.
func Receive(conn net.Conn) (*Message, error) {
	buf, headerEnd, err := readHeaderRegion(conn)
	if err != nil {
		return nil, err
	}

	headerLine, headers, err := parseHeaderRegion(buf[:headerEnd])
	if err != nil {
		return nil, err
	}

	bodyLen, err := contentLength(headers)
	if err != nil {
		return nil, err
	}

	msg := &Message{HeaderLine: headerLine, Headers: headers}
	if bodyLen == 0 {
		if len(buf) > headerEnd {
			return nil, cperrors.NewFramingError("received more bytes than Content-Length declared")
		}
		headers.Set("Content-Length", "0")
		return msg, nil
	}

	body, err := readBody(conn, buf[headerEnd:], bodyLen)
	if err != nil {
		return nil, err
	}
	msg.Body = body

	return msg, nil
}

// readHeaderRegion accumulates bytes off conn, CHUNK bytes at a time, under
// a KEEP_ALIVE_MS idle-poll timeout per read, until the CRLFCRLF header
// terminator is found. Returns the whole buffer read so far (header region
// plus any body prefix already read) and the offset of the end of the
// header region (spec §4.2 Receive).
func readHeaderRegion(conn net.Conn) ([]byte, int, error) {
	var buf []byte
	first := true

	for {
		if err := conn.SetReadDeadline(time.Now().Add(constants.KeepAliveTimeout)); err != nil {
			return nil, 0, cperrors.NewTransportError("set-read-deadline", err)
		}

		chunk := make([]byte, constants.ChunkSize)
		n, err := conn.Read(chunk)
		if n > 0 {
			first = false
			buf = append(buf, chunk[:n]...)

			if idx := bytes.Index(buf, []byte(crlfcrlf)); idx >= 0 {
				headerEnd := idx + len(crlfcrlf)
				if headerEnd > constants.MaxHeaderBytes {
					return nil, 0, cperrors.NewHeaderTooBigError()
				}
				return buf, headerEnd, nil
			}
			if len(buf) > constants.MaxHeaderBytes {
				return nil, 0, cperrors.NewHeaderTooBigError()
			}
		}

		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, 0, cperrors.NewIdleTimeoutError("receive-header")
			}
			if errors.Is(err, io.EOF) {
				if first && len(buf) == 0 {
					return nil, 0, cperrors.NewPeerClosedError("receive-header")
				}
				return nil, 0, cperrors.NewParseError("peer closed before header terminator", err)
			}
			return nil, 0, cperrors.NewTransportError("receive-header", err)
		}
	}
}

// parseHeaderRegion splits the header region into its header line and
// header set. Malformed lines (no colon) are skipped silently; duplicate
// headers are last-write-wins via Headers.Set (spec §4.2).
func parseHeaderRegion(region []byte) (string, *Headers, error) {
	text := strings.TrimSuffix(string(region), crlfcrlf)
	lines := strings.Split(text, "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", nil, cperrors.NewParseError("empty header line", nil)
	}

	headerLine := lines[0]
	headers := NewHeaders()

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue // malformed line, skipped silently
		}
		key := line[:idx]
		value := strings.TrimLeft(line[idx+1:], " \t")
		if key == "" {
			continue
		}
		headers.Set(key, value)
	}

	return headerLine, headers, nil
}

// contentLength reads and validates the Content-Length header. Absence
// means a zero-length body (spec §4.2).
func contentLength(headers *Headers) (int64, error) {
	raw, ok := headers.Get("Content-Length")
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, cperrors.NewParseError("invalid Content-Length", err)
	}
	if n > constants.MaxBodyBytes {
		return 0, cperrors.NewBodyTooBigError(n, constants.MaxBodyBytes)
	}
	return n, nil
}

// readBody continues reading off conn (reusing any body bytes already
// present in prefix) until exactly bodyLen bytes have been collected.
// Any excess indicates a malformed peer (spec §4.2 FramingError).
func readBody(conn net.Conn, prefix []byte, bodyLen int64) (*buffer.Buffer, error) {
	body := buffer.New(buffer.DefaultMemoryLimit)

	if int64(len(prefix)) > bodyLen {
		body.Close()
		return nil, cperrors.NewFramingError("received more bytes than Content-Length declared")
	}
	if len(prefix) > 0 {
		if _, err := body.Write(prefix); err != nil {
			return nil, cperrors.NewCacheIOError("write", "", err)
		}
	}

	remaining := bodyLen - int64(len(prefix))
	for remaining > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(constants.KeepAliveTimeout)); err != nil {
			body.Close()
			return nil, cperrors.NewTransportError("set-read-deadline", err)
		}

		chunkSize := int64(constants.ChunkSize)
		if remaining < chunkSize {
			chunkSize = remaining
		}
		chunk := make([]byte, chunkSize)
		n, err := conn.Read(chunk)
		if n > 0 {
			if _, werr := body.Write(chunk[:n]); werr != nil {
				body.Close()
				return nil, cperrors.NewCacheIOError("write", "", werr)
			}
			remaining -= int64(n)
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				body.Close()
				return nil, cperrors.NewIdleTimeoutError("receive-body")
			}
			if errors.Is(err, io.EOF) {
				body.Close()
				return nil, cperrors.NewTransportError("receive-body", err)
			}
			body.Close()
			return nil, cperrors.NewTransportError("receive-body", err)
		}
	}

	return body, nil
}
