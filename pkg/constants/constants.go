// Package constants defines magic numbers and default values used throughout cacheproxy.
package constants

import "time"

// Message engine limits.
const (
	// ChunkSize is the read granularity used by the incremental message receiver.
	ChunkSize = 1024

	// KeepAliveTimeout bounds how long the receiver polls an idle socket
	// before aborting with IdleTimeout.
	KeepAliveTimeout = 10000 * time.Millisecond

	// MaxHeaderBytes is the hard cap on the header region (header line plus
	// header set plus terminating blank line).
	MaxHeaderBytes = 8192

	// MaxBodyBytes is the default cap on Content-Length-declared body size.
	MaxBodyBytes = 4 * 1024 * 1024 * 1024 // 4 GiB
)

// Cache limits.
const (
	// MinBucketCount is the minimum (power-of-two) bucket count for the
	// cache's hash index.
	MinBucketCount = 1024

	// DefaultBodyMemLimit is the in-memory threshold before a buffered body
	// spills to a temp file.
	DefaultBodyMemLimit = 4 * 1024 * 1024 // 4MB
)

// Proxy identity, used in header rewriting.
const (
	// ViaIdentifier names this proxy in the Via header written on forwarded
	// requests: "Via: 1.1 <ViaIdentifier>".
	ViaIdentifier = "cacheproxy"
)

// Defaults for the external interfaces (CLI, blocklist file, cache dir).
const (
	DefaultOriginPort = 80
	DefaultCacheDir   = "./cache"
	DefaultBlocklist  = "./blocklist"
)
