package domain

import (
	"fmt"
	"time"
)

// FormatUrgency renders a response window in seconds as minutes below an
// hour, hours below a day, days otherwise. Integer floor division.
func FormatUrgency(seconds int) string {
	switch {
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}

// TimeAgo renders t relative to now for event and alert listings.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff >= time.Minute:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	default:
		return "Just now"
	}
}
