// Package env reads typed configuration values out of the process environment.
//
// The retrieval pack's config layer leans on a helper package of this shape
// but never ships one itself, so this is a from-scratch fill: plain
// os.Getenv plus strconv, nothing fancier, matching the call signature
// (name, default) every config.go var block in the pack already expects.
package env

import (
	"os"
	"strconv"
)

// String returns the value of the named environment variable, or def when unset.
func String(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

// Int returns the named environment variable parsed as an int, or def when
// unset or unparsable.
func Int(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the named environment variable parsed as a bool, or def when
// unset or unparsable. Accepts the same forms as strconv.ParseBool
// ("1", "t", "T", "TRUE", "true", "True", "0", "f", ...).
func Bool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Float64 returns the named environment variable parsed as a float64, or def
// when unset or unparsable.
func Float64(name string, def float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
