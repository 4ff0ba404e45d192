package scheduler

import (
	"strconv"
	"strings"
	"time"
)

// ParseIntervalDuration parses "15m", "1h", "4h", "1d", "1w" and any
// time.ParseDuration form ("90m", "1h30m"). Returns (0, false) on invalid
// or non-positive input.
func ParseIntervalDuration(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return 0, false
	}
	unit := interval[len(interval)-1]
	if unit == 'd' || unit == 'w' {
		n, err := strconv.Atoi(strings.TrimSpace(interval[:len(interval)-1]))
		if err != nil || n <= 0 {
			return 0, false
		}
		day := 24 * time.Hour
		if unit == 'w' {
			return time.Duration(n) * 7 * day, true
		}
		return time.Duration(n) * day, true
	}
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
