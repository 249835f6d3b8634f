package util

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// FormatMinutes renders a minute count as "Xh Ym" or "Ym"
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	mins := minutes % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// RoundMinutes converts a duration to whole minutes, rounding half up
func RoundMinutes(d time.Duration) int {
	return int(math.Floor(d.Minutes() + 0.5))
}

// TruncateRunes limits s to at most n runes
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ShortHash returns the 7-character abbreviated form of a commit hash
func ShortHash(hash string) string {
	if len(hash) <= 7 {
		return hash
	}
	return hash[:7]
}
