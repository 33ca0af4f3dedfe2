// Package worker implements the per-connection orchestrator of spec §4.6:
// receive, parse, blocklist check, rewrite, cache-or-direct fetch,
// reconstruct, respond.
//
// Grounded on the teacher's top-level Do/roundtrip sequencing (the request
// is driven through a fixed pipeline of named stages, each returning an
// error that is mapped to an outcome rather than panicking) adapted from a
// client call path to a proxy's server-side handling of one connection.
package worker

import (
	"context"
	"log/slog"
	"net"

	"cacheproxy/pkg/blocklist"
	"cacheproxy/pkg/cache"
	cperrors "cacheproxy/pkg/errors"
	"cacheproxy/pkg/message"
	"cacheproxy/pkg/request"
	"cacheproxy/pkg/response"
	"cacheproxy/pkg/timing"

	"golang.org/x/net/proxy"
)

// Deps carries the shared, read-only references every worker needs (spec
// §9's "single owned Proxy value threaded explicitly into workers").
type Deps struct {
	Cache     *cache.Cache
	Blocklist *blocklist.Set
	Dialer    proxy.Dialer
	Logger    *slog.Logger
}

// Handle drives one client connection end to end per spec §4.6. It never
// panics on malformed input; every failure path synthesizes and sends an
// error response (or, for transport-level failures before any bytes can be
// framed, simply closes).
func Handle(ctx context.Context, conn net.Conn, deps Deps) {
	defer conn.Close()
	log := deps.Logger

	remoteIP, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	reqMsg, err := message.Receive(conn)
	if err != nil {
		if isSilentIntakeFailure(err) {
			logIntake(log, err)
			return // no bytes were ever framed; nothing to respond to (spec §8 boundary: idle client closed with no response)
		}
		log.Debug("request intake failed", "error", err)
		respondError(conn, log, statusForError(err), reasonForError(err))
		return
	}

	req, err := request.Parse(reqMsg)
	if err != nil {
		respondError(conn, log, 400, "Bad Request")
		return
	}

	if deps.Blocklist.Check(req.Host) {
		log.Info("blocked host", "host", req.Host)
		respondError(conn, log, 403, "Forbidden")
		return
	}

	request.Rewrite(req, remoteIP)

	key := req.Key()
	var resp *response.Response
	if key == "" {
		resp, err = response.Fetch(ctx, deps.Dialer, req, nil)
	} else {
		resp, err = fetchViaCache(ctx, deps, key, req)
	}
	if err != nil {
		respondError(conn, log, statusForError(err), reasonForError(err))
		return
	}

	if err := response.Send(conn, resp); err != nil {
		log.Warn("send response failed", "error", err)
	}
}

// fetchViaCache implements spec §4.6's cache.get(key, resolver=origin_fetch)
// call: the resolver opens an origin connection, sends the rewritten
// request, receives the response, and persists its raw bytes via
// cache_set (Entry.Set) before returning.
func fetchViaCache(ctx context.Context, deps Deps, key string, req *request.Request) (*response.Response, error) {
	raw, err := deps.Cache.Get(key, func(e *cache.Entry) error {
		timer := timing.NewTimer()
		resp, err := response.Fetch(ctx, deps.Dialer, req, timer)
		if err != nil {
			return err
		}
		body, err := response.RawBytes(resp)
		if err != nil {
			return err
		}
		return e.Set(body)
	})
	if err != nil {
		return nil, err
	}

	msg, err := message.ParseBytes(raw)
	if err != nil {
		return nil, cperrors.NewCacheIOError("decode", key, err)
	}
	return response.Parse(msg)
}

func respondError(conn net.Conn, log *slog.Logger, status int, reason string) {
	resp, err := response.SynthesizeError(status, reason)
	if err != nil {
		log.Warn("failed to synthesize error response", "error", err)
		return
	}
	if err := response.Send(conn, resp); err != nil {
		log.Warn("failed to send error response", "error", err)
	}
}

// isSilentIntakeFailure reports whether err means no bytes were ever framed
// into a request (idle client, or client that closed before sending
// anything), the one case spec §8 says gets no response at all. Every
// other intake failure (malformed header line, oversized header or body,
// bad framing, a transport error mid-request) concerns bytes the client
// did send, and gets a 400 via statusForError/respondError instead.
func isSilentIntakeFailure(err error) bool {
	switch cperrors.GetErrorType(err) {
	case cperrors.ErrorTypeIdleTimeout, cperrors.ErrorTypePeerClosed:
		return true
	default:
		return false
	}
}

func logIntake(log *slog.Logger, err error) {
	if cperrors.GetErrorType(err) == cperrors.ErrorTypePeerClosed {
		return
	}
	log.Debug("request intake failed", "error", err)
}

// statusForError maps a structured error's Type to the response code
// required by spec §7's propagation table. Cache I/O failures surface as
// FetchFailed to the worker (spec §7), so they share FetchFailed's 504.
func statusForError(err error) int {
	switch cperrors.GetErrorType(err) {
	case cperrors.ErrorTypeParse, cperrors.ErrorTypeFraming, cperrors.ErrorTypeHeaderTooBig, cperrors.ErrorTypeBodyTooBig, cperrors.ErrorTypeTransport:
		return 400
	case cperrors.ErrorTypeBlocked:
		return 403
	case cperrors.ErrorTypeDNS, cperrors.ErrorTypeConnect, cperrors.ErrorTypeFetchFailed, cperrors.ErrorTypeIdleTimeout, cperrors.ErrorTypeCacheIO:
		return 504
	default:
		return 500
	}
}

func reasonForError(err error) string {
	switch statusForError(err) {
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 504:
		return "Gateway Timeout"
	default:
		return "Internal Server Error"
	}
}
