package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// maxIntervalSeconds is the largest whole-second count a time.Duration holds.
const maxIntervalSeconds = uint64(math.MaxInt64 / int64(time.Second))

// ParseInterval parses a poll interval. A bare integer is a number of seconds; anything else
// is a Go duration extended with d (24h) and w (7d) units, e.g. "90s", "1.5d", "1w2d".
// Negative intervals are rejected. Second counts beyond what a time.Duration holds are clamped
// to the longest duration.
func ParseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("interval is required")
	}
	if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
		if secs > maxIntervalSeconds {
			return time.Duration(math.MaxInt64), nil
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := parseDurationExtended(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("interval %q is negative", raw)
	}
	return d, nil
}

func parseDurationExtended(raw string) (time.Duration, error) {
	if !strings.ContainsAny(raw, "dw") {
		return time.ParseDuration(raw)
	}
	expanded, err := expandDaysWeeks(raw)
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(expanded)
}

// expandDaysWeeks rewrites d and w components as hours so time.ParseDuration can read them.
func expandDaysWeeks(raw string) (string, error) {
	invalid := fmt.Errorf("invalid duration %q", raw)
	s := raw

	var b strings.Builder
	if s[0] == '+' || s[0] == '-' {
		b.WriteByte(s[0])
		s = s[1:]
	}
	if s == "" {
		return "", invalid
	}

	for len(s) > 0 {
		i := strings.IndexFunc(s, func(r rune) bool { return r != '.' && (r < '0' || r > '9') })
		if i <= 0 {
			return "", invalid
		}
		numStr := s[:i]
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return "", invalid
		}
		s = s[i:]

		j := 0
		for j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if r == utf8.RuneError && size == 1 {
				return "", invalid
			}
			if r != 'µ' && !unicode.IsLetter(r) {
				break
			}
			j += size
		}
		if j == 0 {
			return "", invalid
		}
		unit := s[:j]
		s = s[j:]

		switch unit {
		case "d":
			b.WriteString(strconv.FormatFloat(num*24, 'f', -1, 64) + "h")
		case "w":
			b.WriteString(strconv.FormatFloat(num*7*24, 'f', -1, 64) + "h")
		default:
			b.WriteString(numStr + unit)
		}
	}
	return b.String(), nil
}
