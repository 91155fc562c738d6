// Package envx overlays configuration from environment variables, optionally
// seeded from a .env file in the working directory.
package envx

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env (or the given files) into the process environment.
// Variables that are already set win; a missing file is not an error.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// String overwrites *dst with the variable's value when it is set and non-empty.
func String(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Duration parses values like "15m" or "7d" (days are accepted as a suffix).
// Unparsable values are ignored.
func Duration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if d, err := ParseDuration(v); err == nil {
		*dst = d
	}
}

// Int64 overwrites *dst with the parsed integer value; invalid values are ignored.
func Int64(key string, dst *int64) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		*dst = n
	}
}

// Int is Int64 for int destinations.
func Int(key string, dst *int) {
	n := int64(*dst)
	Int64(key, &n)
	*dst = int(n)
}

// ParseDuration extends time.ParseDuration with a "d" (24h) suffix.
func ParseDuration(s string) (time.Duration, error) {
	if n := len(s); n > 1 && s[n-1] == 'd' {
		days, err := strconv.Atoi(s[:n-1])
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
