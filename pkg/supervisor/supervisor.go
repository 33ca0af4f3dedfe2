// Package supervisor implements the process-level orchestration of spec
// §4.7: bind and listen, accept loop, worker spawn with shared read-only
// references, and signal-driven graceful shutdown. Workers are goroutines
// tracked by a sync.WaitGroup that is waited on in full at shutdown; the
// accept loop has no separate per-iteration reap step.
//
// Grounded on the teacher's connection-pool lifecycle style (shared state
// behind a single struct, explicit Close draining in-flight work) but the
// accept loop itself follows the standard net.Listener.Accept idiom that
// every complete example repo in the pack that runs a server uses.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"cacheproxy/pkg/blocklist"
	"cacheproxy/pkg/cache"
	"cacheproxy/pkg/worker"

	"golang.org/x/net/proxy"
)

// Config is the startup configuration of spec §6's CLI surface.
type Config struct {
	Port          int
	CacheTTL      time.Duration
	PrefetchDepth int // accepted, stored, surfaced in the startup log only (spec §9/SPEC_FULL §6 expansion)
	CacheDir      string
	BlocklistPath string
	Logger        *slog.Logger
}

// Supervisor owns the listening socket, the shared blocklist and cache, and
// tracks live workers for graceful drain.
type Supervisor struct {
	cfg       Config
	ln        net.Listener
	blocklist *blocklist.Set
	cache     *cache.Cache
	wg        sync.WaitGroup
}

// New binds the listening socket and loads the blocklist and cache. The
// blocklist and cache are ready for use immediately on return.
func New(cfg Config) (*Supervisor, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}

	bl, err := blocklist.Load(cfg.BlocklistPath, cfg.Logger)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("load blocklist %s: %w", cfg.BlocklistPath, err)
	}

	c, err := cache.New(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("init cache at %s: %w", cfg.CacheDir, err)
	}

	cfg.Logger.Info("proxy starting",
		"port", cfg.Port,
		"cache_ttl", cfg.CacheTTL,
		"prefetch_depth", cfg.PrefetchDepth,
		"cache_dir", cfg.CacheDir,
		"blocklist_entries", bl.Len(),
	)

	return &Supervisor{cfg: cfg, ln: ln, blocklist: bl, cache: c}, nil
}

// Addr returns the bound listener address (useful for tests that bind port 0).
func (s *Supervisor) Addr() net.Addr { return s.ln.Addr() }

// Run accepts connections and spawns a worker per connection until ctx is
// canceled (SIGINT or equivalent, per the caller — see cmd/cacheproxy),
// then stops accepting, drains in-flight workers, and finalizes the cache
// (spec §4.7).
func (s *Supervisor) Run(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
		s.ln.Close()
	}()

	deps := worker.Deps{
		Cache:     s.cache,
		Blocklist: s.blocklist,
		Dialer:    proxy.Direct,
		Logger:    s.cfg.Logger,
	}

	var acceptErr error
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-stop:
				acceptErr = nil
			default:
				acceptErr = err
			}
			break
		}

		s.wg.Add(1)
		connID := conn.RemoteAddr().String()
		go func() {
			defer s.wg.Done()
			worker.Handle(ctx, conn, worker.Deps{
				Cache:     deps.Cache,
				Blocklist: deps.Blocklist,
				Dialer:    deps.Dialer,
				Logger:    deps.Logger.With("conn", connID),
			})
		}()
	}

	s.wg.Wait()     // block on child collection
	s.cache.Close() // finalize cache: blocks on in-flight readers

	s.cfg.Logger.Info("proxy stopped")
	return acceptErr
}
