// Package chatutil provides pure derivation helpers over already-fetched
// chat data: date-bucketed session grouping, relative timestamp labels, and
// message previews. Nothing in this package touches the network.
package chatutil

import (
	"time"

	"github.com/lexhub/lexchat/chatapi"
)

// Bucket labels, in display order.
const (
	BucketToday      = "Today"
	BucketYesterday  = "Yesterday"
	BucketLast7Days  = "Last 7 Days"
	BucketLast30Days = "Last 30 Days"
	// BucketOlder exists in the scheme but is never populated: sessions older
	// than 30 days are excluded from grouping entirely. See DESIGN.md.
	BucketOlder = "Older"
)

// SessionGroup is one non-empty date bucket with its sessions in input order.
type SessionGroup struct {
	Label    string
	Sessions []chatapi.SessionSummary
}

// GroupSessionsByDate buckets sessions by their last-activity timestamp
// relative to now, interpreted in loc (the viewer's local time zone). Buckets
// appear in fixed order and only when non-empty. Today and Yesterday compare
// calendar days; the 7-day window takes precedence over the 30-day window for
// the overlapping range. Relative input order is preserved within a bucket.
func GroupSessionsByDate(sessions []chatapi.SessionSummary, now time.Time, loc *time.Location) []SessionGroup {
	if loc == nil {
		loc = time.Local
	}

	today := startOfDay(now, loc)
	yesterday := today.AddDate(0, 0, -1)
	sevenDaysAgo := now.AddDate(0, 0, -7)
	thirtyDaysAgo := now.AddDate(0, 0, -30)

	buckets := map[string][]chatapi.SessionSummary{}
	for _, session := range sessions {
		ts := time.Unix(session.UpdatedTs, 0).In(loc)
		day := startOfDay(ts, loc)

		var label string
		switch {
		case day.Equal(today):
			label = BucketToday
		case day.Equal(yesterday):
			label = BucketYesterday
		case ts.After(sevenDaysAgo):
			label = BucketLast7Days
		case ts.After(thirtyDaysAgo):
			label = BucketLast30Days
		default:
			// Older than 30 days: dropped from every bucket.
			continue
		}
		buckets[label] = append(buckets[label], session)
	}

	var groups []SessionGroup
	for _, label := range []string{BucketToday, BucketYesterday, BucketLast7Days, BucketLast30Days} {
		if list, ok := buckets[label]; ok {
			groups = append(groups, SessionGroup{Label: label, Sessions: list})
		}
	}
	return groups
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
