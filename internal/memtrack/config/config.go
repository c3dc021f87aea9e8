// Package config parses the tracker's environment configuration string.
//
// A single environment variable holds ";"-separated NAME=VALUE tokens, for
// example:
//
//	MEMTRACK_CONFIG="GUARD=128;FILE=memtrack.log"
//
// Parsing is last-applied-wins and idempotent: feeding the same string twice
// yields the same configuration. Tokens without an "=" are skipped, unknown
// names are collected as warnings, and malformed values for known names are
// errors (the tracker treats them as fatal at initialization).
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvVar is the environment variable the tracker reads on first use.
const EnvVar = "MEMTRACK_CONFIG"

// DefaultGuardSize is the guard region size in bytes applied when GUARD is
// not configured.
const DefaultGuardSize = 1024

// Config is the process-wide tracker configuration. It is fixed after the
// first use of any tracking operation.
type Config struct {
	// GuardSize is the size in bytes of each guard region. Zero disables
	// guard checking.
	GuardSize int

	// FilePath redirects report output to the named file when non-empty;
	// the default destination is standard error.
	FilePath string

	// Backend names the raw block source: "heap" or "mmap".
	Backend string

	// Strict makes a failed real allocation fatal instead of returning
	// the no-allocation result.
	Strict bool
}

// Default returns the configuration applied before any environment override.
func Default() Config {
	return Config{
		GuardSize: DefaultGuardSize,
		Backend:   "heap",
	}
}

// Parse applies the NAME=VALUE tokens of s on top of Default. It returns
// the resulting configuration, one warning per unrecognized name, and an
// error on the first malformed value for a recognized name.
func Parse(s string) (Config, []string, error) {
	cfg := Default()
	var warnings []string

	for _, token := range strings.Split(s, ";") {
		name, value, found := strings.Cut(token, "=")
		if !found || name == "" || value == "" {
			continue
		}
		switch name {
		case "GUARD":
			n, err := strconv.ParseUint(value, 10, 31)
			if err != nil {
				return cfg, warnings, fmt.Errorf("config: invalid GUARD value %q", value)
			}
			cfg.GuardSize = int(n)
		case "FILE":
			cfg.FilePath = value
		case "BACKEND":
			cfg.Backend = value
		case "STRICT":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return cfg, warnings, fmt.Errorf("config: invalid STRICT value %q", value)
			}
			cfg.Strict = b
		default:
			warnings = append(warnings, fmt.Sprintf("unknown parameter %q; ignored", name))
		}
	}
	return cfg, warnings, nil
}
