// Package blocklist loads and checks the IPv4 block list of spec §3/§6.
// This component is named by spec.md §1 as trivial/out of scope ("the
// block-list file loader ... producing a set of resolved IPv4 addresses"),
// so line parsing and IP handling stay on the standard library rather than
// a third-party line-parsing or IP-set library; only hostname case folding
// uses golang.org/x/text/cases.
package blocklist

import (
	"bufio"
	"log/slog"
	"net"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Set is an immutable set of resolved IPv4 addresses, safe for concurrent
// read-only access once Load returns (spec §3 "Blocklist").
type Set struct {
	addrs map[string]struct{}
}

var lowerer = cases.Lower(language.Und)

// Load reads path, one hostname or IPv4 literal per line, resolving each
// eagerly. Unresolvable lines produce a warning on logger and are skipped
// (spec §6). A missing file yields an empty, non-blocking Set.
func Load(path string, logger *slog.Logger) (*Set, error) {
	s := &Set{addrs: make(map[string]struct{})}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = lowerer.String(line)

		ips, err := net.LookupIP(line)
		if err != nil || len(ips) == 0 {
			logger.Warn("blocklist: unresolvable entry, skipping", "entry", line, "error", err)
			continue
		}

		added := false
		for _, ip := range ips {
			if v4 := ip.To4(); v4 != nil {
				s.addrs[v4.String()] = struct{}{}
				added = true
			}
		}
		if !added {
			logger.Warn("blocklist: entry has no IPv4 address, skipping", "entry", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// Check reports whether host's resolved IPv4 address is in the set (spec §3
// "check(host)").
func (s *Set) Check(host string) bool {
	if s == nil || len(s.addrs) == 0 {
		return false
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return false
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			if _, blocked := s.addrs[v4.String()]; blocked {
				return true
			}
		}
	}
	return false
}

// Len returns the number of distinct resolved addresses loaded.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.addrs)
}
