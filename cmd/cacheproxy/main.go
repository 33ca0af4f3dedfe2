// Command cacheproxy is the process entry point of spec §6: a forwarding,
// caching HTTP/1.1 proxy started as
//
//	cacheproxy <port> <cache_ttl_seconds> [<prefetch_depth>] [-v]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cacheproxy/pkg/constants"
	"cacheproxy/pkg/supervisor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses arguments, starts the supervisor, and blocks until SIGINT
// triggers graceful shutdown. It returns the process exit code directly
// (0 clean shutdown, 1 argument error or fatal init failure — spec §6)
// rather than calling os.Exit itself, so tests can drive it.
func run(args []string) int {
	fs := flag.NewFlagSet("cacheproxy", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "enable verbose stderr logging")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: cacheproxy <port> <cache_ttl_seconds> [<prefetch_depth>] [-v]")
	}

	// flag does not support flags interleaved after positional arguments in
	// the shape this CLI needs, so -v is parsed out first and the remainder
	// treated as purely positional.
	positional, err := splitPositional(args)
	if err != nil {
		fs.Usage()
		return 1
	}
	if err := fs.Parse(positional.flags); err != nil {
		return 1
	}

	cfg, err := parseConfig(positional.rest, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cacheproxy:", err)
		fs.Usage()
		return 1
	}

	sup, err := supervisor.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cacheproxy: startup failed:", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT)
	defer cancel()

	if err := sup.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "cacheproxy: accept loop failed:", err)
		return 1
	}
	return 0
}

type splitArgs struct {
	flags []string
	rest  []string
}

func splitPositional(args []string) (splitArgs, error) {
	var out splitArgs
	for _, a := range args {
		if a == "-v" || a == "--v" {
			out.flags = append(out.flags, a)
			continue
		}
		out.rest = append(out.rest, a)
	}
	return out, nil
}

func parseConfig(positional []string, verbose bool) (supervisor.Config, error) {
	if len(positional) < 2 || len(positional) > 3 {
		return supervisor.Config{}, fmt.Errorf("expected 2 or 3 positional arguments, got %d", len(positional))
	}

	port, err := strconv.Atoi(positional[0])
	if err != nil || port < 1 || port > 65535 {
		return supervisor.Config{}, fmt.Errorf("invalid port %q", positional[0])
	}

	ttlSeconds, err := strconv.Atoi(positional[1])
	if err != nil || ttlSeconds < 1 {
		return supervisor.Config{}, fmt.Errorf("invalid cache_ttl_seconds %q", positional[1])
	}

	prefetchDepth := 0
	if len(positional) == 3 {
		prefetchDepth, err = strconv.Atoi(positional[2])
		if err != nil || prefetchDepth < 0 {
			return supervisor.Config{}, fmt.Errorf("invalid prefetch_depth %q", positional[2])
		}
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return supervisor.Config{
		Port:          port,
		CacheTTL:      time.Duration(ttlSeconds) * time.Second,
		PrefetchDepth: prefetchDepth,
		CacheDir:      constants.DefaultCacheDir,
		BlocklistPath: constants.DefaultBlocklist,
		Logger:        logger,
	}, nil
}
