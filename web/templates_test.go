package web

import (
	"testing"
	"time"
)

func TestDatetimeAt(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.Local)
	ts := func(d time.Duration) float64 { return float64(now.Add(-d).Unix()) }

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "1分钟前"},
		{5 * time.Minute, "5分钟前"},
		{3 * time.Hour, "3小时前"},
		{2 * 24 * time.Hour, "2天前"},
		{10 * 24 * time.Hour, "2024年5月10日"},
	}
	for _, c := range cases {
		if got := datetimeAt(ts(c.ago), now); got != c.want {
			t.Errorf("%v ago: got %q, want %q", c.ago, got, c.want)
		}
	}
}
