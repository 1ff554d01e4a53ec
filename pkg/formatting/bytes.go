// Package formatting converts between human-readable strings and values:
// byte sizes in configuration and JSON payloads in model output.
package formatting

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// byteUnits are base-1024 magnitudes; index i is 1024^i bytes.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above 1, using precision decimal places (negative means zero). Plain
// byte counts are always whole.
func FormatBytes(n int64, precision int) string {
	if n > -1024 && n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}
	precision = max(precision, 0)

	i := 0
	v := float64(n)
	for (v >= 1024 || v <= -1024) && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(v, 'f', precision, 64) + " " + byteUnits[i]
}

// ParseBytes parses sizes such as "25MB", "1.5 kb", or "1024". A bare
// number is bytes. Units are case-insensitive and may follow a space.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number %q: %w", number, err)
	}

	exp := 0
	if unit != "" {
		exp = slices.Index(byteUnits, strings.ToUpper(unit))
		if exp < 0 {
			return 0, fmt.Errorf("unknown byte size unit: %q", unit)
		}
	}

	return int64(value * float64(int64(1)<<(10*exp))), nil
}
