package cli

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const barWidth = 20

// progressBar draws pct (0..100) as a fixed-width bar.
func progressBar(pct float64) string {
	filled := int(math.Round(pct / 100 * barWidth))
	filled = max(0, min(barWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func formatPoints(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + formatPoints(-n)
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatSigned(n int64) string {
	if n > 0 {
		return "+" + formatPoints(n)
	}
	return formatPoints(n)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02 Jan 2006")
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
