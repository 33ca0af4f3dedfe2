package message

import (
	"bytes"

	cperrors "cacheproxy/pkg/errors"
)

// ParseBytes decodes a complete, already-buffered message (header line,
// headers, body) such as one read back from a cache file. Unlike Receive,
// it never blocks on a socket: raw must already contain the full body.
func ParseBytes(raw []byte) (*Message, error) {
	idx := bytes.Index(raw, []byte(crlfcrlf))
	if idx < 0 {
		return nil, cperrors.NewParseError("no header terminator found", nil)
	}
	headerEnd := idx + len(crlfcrlf)

	headerLine, headers, err := parseHeaderRegion(raw[:headerEnd])
	if err != nil {
		return nil, err
	}

	bodyLen, err := contentLength(headers)
	if err != nil {
		return nil, err
	}

	msg := &Message{HeaderLine: headerLine, Headers: headers}
	rest := raw[headerEnd:]
	if bodyLen == 0 {
		headers.Set("Content-Length", "0")
		return msg, nil
	}
	if int64(len(rest)) < bodyLen {
		return nil, cperrors.NewFramingError("fewer bytes than Content-Length declared")
	}

	if err := msg.SetBody(rest[:bodyLen]); err != nil {
		return nil, err
	}
	return msg, nil
}
