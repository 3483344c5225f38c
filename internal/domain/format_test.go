package domain

import (
	"testing"
	"time"
)

func TestFormatUrgency(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{59, "0m"},
		{60, "1m"},
		{900, "15m"},
		{3599, "59m"},
		{3600, "1h"},
		{86399, "23h"},
		{86400, "1d"},
		{172800, "2d"},
	}
	for _, c := range cases {
		if got := FormatUrgency(c.seconds); got != c.want {
			t.Errorf("FormatUrgency(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-49 * time.Hour), "2 days ago"},
	}
	for _, c := range cases {
		if got := TimeAgo(c.t, now); got != c.want {
			t.Errorf("TimeAgo(%v) = %q, want %q", c.t, got, c.want)
		}
	}
}
