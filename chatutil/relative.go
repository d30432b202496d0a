package chatutil

import (
	"fmt"
	"time"
)

// FormatRelativeTimestamp renders a Unix timestamp as a coarse relative label:
// "Just now" under a minute, then minute/hour/day granularity, and a bare
// month-and-day date beyond a week. The year is intentionally omitted past the
// 7-day threshold; that precision loss is accepted.
func FormatRelativeTimestamp(ts int64, now time.Time) string {
	t := time.Unix(ts, 0).In(now.Location())
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
