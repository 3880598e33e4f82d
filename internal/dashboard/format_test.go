package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeLabelBuckets(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "Just now"},
		{"under a minute", 59 * time.Second, "Just now"},
		{"exactly one minute", time.Minute, "1 minute ago"},
		{"just under two minutes", 2*time.Minute - time.Millisecond, "1 minute ago"},
		{"two minutes", 2 * time.Minute, "2 minutes ago"},
		{"fifty-nine minutes", 59 * time.Minute, "59 minutes ago"},
		{"one hour", time.Hour, "1 hour ago"},
		{"five hours", 5 * time.Hour, "5 hours ago"},
		{"twenty-three hours", 23 * time.Hour, "23 hours ago"},
		{"one day", 24 * time.Hour, "1 day ago"},
		{"six days", 6 * 24 * time.Hour, "6 days ago"},
		{"seven days", 7 * 24 * time.Hour, "1 week ago"},
		{"twenty days", 20 * 24 * time.Hour, "2 weeks ago"},
		{"thirty days", 30 * 24 * time.Hour, "1 month ago"},
		{"ninety days", 90 * 24 * time.Hour, "3 months ago"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeLabel(now.Add(-tc.elapsed), false, now))
		})
	}
}

func TestRelativeLabelLiveOverridesTimestamp(t *testing.T) {
	now := time.Now()
	assert.Equal(t, LiveLabel, RelativeLabel(now.Add(-48*time.Hour), true, now))
}

func TestRelativeLabelFutureTimestampClamps(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "Just now", RelativeLabel(now.Add(10*time.Minute), false, now))
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		name   string
		ref    string
		origin string
		want   string
	}{
		{"root-relative", "/bg.png", "https://h.example/somewhere", "https://h.example/bg.png"},
		{"relative", "bg.png", "https://h.example", "https://h.example/bg.png"},
		{"relative against trailing slash", "bg.png", "https://h.example/", "https://h.example/bg.png"},
		{"absolute passes through", "https://cdn.example/bg.png", "https://h.example", "https://cdn.example/bg.png"},
		{"root-relative keeps port", "/img/bg.jpg", "http://h.example:30000", "http://h.example:30000/img/bg.jpg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveURL(tc.ref, tc.origin)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveURLBadOrigin(t *testing.T) {
	_, err := ResolveURL("/bg.png", "not a url")
	require.Error(t, err)

	_, err = ResolveURL("bg.png", "")
	require.Error(t, err)
}
