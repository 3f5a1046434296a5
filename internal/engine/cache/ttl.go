package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL bounds.
const (
	DefaultTTL = time.Hour
	MinTTL     = time.Second
	MaxTTL     = 7 * 24 * time.Hour
)

// ErrInvalidTTL rejects TTLs outside [MinTTL, MaxTTL].
const ErrInvalidTTL = constError("cache ttl out of range")

// ValidateTTL checks d against the TTL bounds.
func ValidateTTL(d time.Duration) error {
	if d < MinTTL || d > MaxTTL {
		return fmt.Errorf("%w: got %s, want %s-%s", ErrInvalidTTL, d, MinTTL, MaxTTL)
	}
	return nil
}

// ParseTTL parses integer seconds ("3600") or a Go duration ("1h30m").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var d time.Duration
	if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("invalid cache ttl %q: %w", s, perr)
		}
		d = parsed
	}
	if err := ValidateTTL(d); err != nil {
		return 0, err
	}
	return d, nil
}

// FormatDuration renders d compactly: "45s", "30m", "1h30m", "2d".
func FormatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < day:
		h, m := int(d.Hours()), int(d.Minutes())%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		days, h := int(d/day), int((d%day)/time.Hour)
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, h)
	}
}
