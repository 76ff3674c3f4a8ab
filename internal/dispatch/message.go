package dispatch

import (
	"fmt"
	"strings"
	"time"

	"CryptoPulse/internal/domain/models"
)

const (
	// channel hard limit; longer messages are truncated head-first.
	maxMessageLen  = 4000
	truncationMark = "\n...[truncated]"
)

// BuildMessage renders the Markdown alert text for one research result.
func BuildMessage(res *models.ResearchResult, settings *models.ResearchSettings) string {
	size := settings.PositionSize(res.Confidence)
	providers := "none"
	if len(res.Providers) > 0 {
		providers = strings.Join(res.Providers, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s Research Alert*\n", res.Symbol)
	fmt.Fprintf(&b, "Time: %s\n", res.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Signal: *%s*\n", res.Signal)
	fmt.Fprintf(&b, "Confidence: %.1f%%\n", res.Confidence)
	fmt.Fprintf(&b, "Suggested size: %.2fx\n", size)
	fmt.Fprintf(&b, "Sources: %s\n", providers)
	if res.Recommendation != "" {
		fmt.Fprintf(&b, "\n%s", res.Recommendation)
	}
	return Truncate(b.String(), maxMessageLen)
}

// Truncate caps s at limit runes, preserving the head and appending the
// truncation marker.
func Truncate(s string, limit int) string {
	if limit <= 0 || len([]rune(s)) <= limit {
		return s
	}
	rs := []rune(s)
	keep := limit - len([]rune(truncationMark))
	if keep < 0 {
		keep = 0
	}
	return string(rs[:keep]) + truncationMark
}
