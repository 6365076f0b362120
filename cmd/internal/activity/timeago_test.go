package activity

import (
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{name: "zero time", t: time.Time{}, want: ""},
		{name: "future clamps to zero", t: now.Add(30 * time.Second), want: "0 seconds ago"},
		{name: "seconds", t: now.Add(-34 * time.Second), want: "34 seconds ago"},
		{name: "one minute", t: now.Add(-90 * time.Second), want: "1 minute ago"},
		{name: "minutes", t: now.Add(-5 * time.Minute), want: "5 minutes ago"},
		{name: "one hour", t: now.Add(-1 * time.Hour), want: "1 hour ago"},
		{name: "hours", t: now.Add(-2*time.Hour - 10*time.Minute), want: "2 hours ago"},
		{name: "one day", t: now.Add(-25 * time.Hour), want: "1 day ago"},
		{name: "days", t: now.Add(-3 * 24 * time.Hour), want: "3 days ago"},
		{name: "one week", t: now.Add(-8 * 24 * time.Hour), want: "1 week ago"},
		{name: "weeks", t: now.Add(-30 * 24 * time.Hour), want: "4 weeks ago"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := TimeAgo(now, tc.t); got != tc.want {
				t.Fatalf("TimeAgo() = %q, want %q", got, tc.want)
			}
		})
	}
}
