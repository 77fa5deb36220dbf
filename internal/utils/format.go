package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Number formats large numbers with commas for readability.
// For example: 1234567 becomes "1,234,567"
func Number(n int64) string {
	if n < 0 {
		return "-" + Number(-n)
	}
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var b strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

// Bytes formats a byte count with a binary unit suffix.
// Examples:
//   - Less than 1 KiB: "512 B"
//   - Less than 1 MiB: "12.3 KiB"
//   - 1 MiB or more: "4.56 MiB"
func Bytes(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	}
}

// Ratio formats compressed/decoded as a percentage, "-" when decoded is 0.
func Ratio(compressed, decoded int64) string {
	if decoded == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(compressed)/float64(decoded))
}

// Duration formats time duration in human-readable form.
// Examples:
//   - Less than 1 second: "0s"
//   - Less than 1 minute: "5.2s"
//   - Less than 1 hour: "3m5.2s"
//   - 1 hour or more: "2h15m"
func Duration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		minutes := int(d.Minutes())
		seconds := d.Seconds() - float64(minutes*60)
		return fmt.Sprintf("%dm%.1fs", minutes, seconds)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// Rate formats throughput with K/M suffixes.
// Examples:
//   - Less than 1,000: "123.45"
//   - Less than 1,000,000: "12.34K"
//   - 1,000,000 or more: "12.34M"
func Rate(rate float64) string {
	switch {
	case rate < 1000:
		return fmt.Sprintf("%.2f", rate)
	case rate < 1000000:
		return fmt.Sprintf("%.2fK", rate/1000)
	default:
		return fmt.Sprintf("%.2fM", rate/1000000)
	}
}
