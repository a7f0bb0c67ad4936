package crawl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// contentHash fingerprints the Markdown recorded for a scraped page.
func contentHash(markdown string) string {
	return strconv.FormatUint(xxhash.Sum64String(markdown), 16)
}

// Summary renders the outcome of a run: the page counts on one line and
// the amount of Markdown saved on the next.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Done after %d cycles: %d scraped, %d skipped, %d failed, %d links enqueued\n",
		r.Cycles, r.Scraped, r.Skipped, r.Failed, r.Enqueued)
	b.WriteString("  Saved ")
	b.WriteString(FormatBytes(r.Bytes))
	if r.Tokens > 0 {
		b.WriteString(", ")
		b.WriteString(FormatTokens(r.Tokens))
	}
	b.WriteByte('\n')
	return b.String()
}

// TruncateURL shortens a page URL to at most maxLen characters for a
// progress line. The tail names the page, so that is what is kept.
// Multi-byte characters are never split.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(url)
	if n <= maxLen {
		return url
	}
	runes := []rune(url)
	if maxLen < 4 {
		return string(runes[:maxLen])
	}
	return "..." + string(runes[n-maxLen+3:])
}

// FormatBytes formats a size in B, KB, MB or GB.
func FormatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	units := []string{"KB", "MB", "GB"}
	value := float64(n) / 1024
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}

// FormatTokens formats an approximate token count.
func FormatTokens(tokens int) string {
	switch {
	case tokens >= 1_000_000:
		return fmt.Sprintf("~%.1fM tokens", float64(tokens)/1_000_000)
	case tokens >= 1000:
		return "~" + strconv.Itoa((tokens+500)/1000) + "k tokens"
	default:
		return "~" + strconv.Itoa(tokens) + " tokens"
	}
}
