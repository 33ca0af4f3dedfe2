// Package request implements the request model of spec §4.3: absolute-form
// request-line parsing, the cacheability test, cache-key derivation, and
// the mandatory proxy header rewrites.
//
// Grounded on the teacher's pkg/client/proxy_parser.go url.Parse-based
// parsing idiom (rewritten against this spec's own regex grammar, since the
// spec's grammar recovers host/port from the Host header in a way
// net/url's URL type does not model) and on the teacher's Options struct
// shape for the parsed-request fields.
package request

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	cperrors "cacheproxy/pkg/errors"
	"cacheproxy/pkg/message"
)

// requestLineRE mirrors spec §4.3's grammar:
//
//	(GET) \s+ ((https?)://)? ([^/:?]+)? (:([0-9]+))? ([^ ?]*) (\?([^ ]*))? \s+ (HTTP/[0-9]+(\.[0-9]+)?)
var requestLineRE = regexp.MustCompile(
	`^(GET)\s+(?:(https?)://)?([^/:?]+)?(?::([0-9]+))?([^ ?]*)(?:\?([^ ]*))?\s+(HTTP/[0-9]+(?:\.[0-9]+)?)$`,
)

var lowerer = cases.Lower(language.Und)

// Request is the parsed, proxy-relevant view of a client message (spec §3).
type Request struct {
	Method  string
	Scheme  string // "http", "https", or "" if unspecified
	Host    string
	Port    int // 0 means "unset", caller defaults to 80
	Path    string
	Query   string
	Version string

	Message *message.Message
}

// NormalizeHost lower-cases a hostname for case-insensitive comparison
// (HTTP host matching is case-insensitive; spec's cache key and blocklist
// lookup both need a stable casing).
func NormalizeHost(host string) string {
	return lowerer.String(host)
}

// Parse extracts a Request from msg's header line, recovering the host (and
// optional port) from the Host header when the absolute-form URI omits it,
// or when both are present and disagree — the Host header wins, matching
// the spec's byte-compatibility note (spec §9 Open Question 3).
func Parse(msg *message.Message) (*Request, error) {
	m := requestLineRE.FindStringSubmatch(msg.HeaderLine)
	if m == nil {
		return nil, cperrors.NewParseError("malformed request line: "+msg.HeaderLine, nil)
	}

	req := &Request{
		Method:  m[1],
		Scheme:  m[2],
		Host:    m[3],
		Path:    m[5],
		Query:   m[6],
		Version: m[7],
		Message: msg,
	}
	if req.Path == "" {
		req.Path = "/"
	}
	if m[4] != "" {
		if p, err := strconv.Atoi(m[4]); err == nil {
			req.Port = p
		}
	}

	if hostHeader, ok := msg.Headers.Get("Host"); ok && hostHeader != "" {
		h, p := splitHostPort(hostHeader)
		req.Host = h
		if p > 0 {
			req.Port = p
		}
	}

	req.Host = NormalizeHost(req.Host)

	return req, nil
}

func splitHostPort(hostHeader string) (string, int) {
	idx := strings.IndexByte(hostHeader, ':')
	if idx < 0 {
		return hostHeader, 0
	}
	host := hostHeader[:idx]
	port, err := strconv.Atoi(hostHeader[idx+1:])
	if err != nil {
		return host, 0
	}
	return host, port
}

// EffectivePort returns Port if set, else the default HTTP port 80.
func (r *Request) EffectivePort() int {
	if r.Port > 0 {
		return r.Port
	}
	return 80
}

// Cacheable reports whether r is eligible for the cache: method GET and
// host, path, and version all present (spec §4.3).
func (r *Request) Cacheable() bool {
	return r.Method == "GET" && r.Host != "" && r.Path != "" && r.Version != ""
}

// Key derives the cache key: host concatenated with path, no separator,
// preserved for compatibility with the source format. Returns "" ("do not
// cache") when the request is not cacheable.
func (r *Request) Key() string {
	if !r.Cacheable() {
		return ""
	}
	return r.Host + r.Path
}
