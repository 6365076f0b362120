package activity

import (
	"fmt"
	"time"
)

// TimeAgo renders a coarse human-readable age for activity feeds
// ("34 seconds ago", "2 hours ago", "1 week ago").
func TimeAgo(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	seconds := now.Sub(t).Seconds()
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds ago", int(seconds))
	case seconds < 3600:
		return plural(int(seconds/60), "minute")
	case seconds < 86400:
		return plural(int(seconds/3600), "hour")
	case seconds < 604800:
		return plural(int(seconds/86400), "day")
	default:
		return plural(int(seconds/604800), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
