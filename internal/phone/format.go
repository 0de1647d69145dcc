package phone

import (
	"fmt"
	"time"
)

// FormatDuration renders a call duration as M:SS below one hour and
// H:MM:SS at or above it, e.g. 65 -> "01:05", 3661 -> "1:01:01".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatDate renders a timestamp the way a recents list shows it:
// time of day if it happened today, weekday within the last week,
// otherwise day and month.
func FormatDate(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 24*time.Hour && t.Day() == now.Day() {
		return t.Format("15:04")
	}
	if diff < 7*24*time.Hour {
		return t.Format("Mon")
	}
	return t.Format("2 Jan")
}
