package dashboard

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// LiveLabel replaces the elapsed-time label while a world is running.
const LiveLabel = "now"

// RelativeLabel renders the time since lastSeen as a coarse human label.
// live overrides the timestamp entirely. A lastSeen in the future (clock
// skew) clamps to the freshest bucket instead of going negative.
func RelativeLabel(lastSeen time.Time, live bool, now time.Time) string {
	if live {
		return LiveLabel
	}

	elapsed := now.Sub(lastSeen)
	if elapsed < 0 {
		elapsed = 0
	}

	mins := int(elapsed / time.Minute)
	hours := int(elapsed / time.Hour)
	days := int(elapsed / (24 * time.Hour))

	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return agoLabel(mins, "minute")
	case hours < 24:
		return agoLabel(hours, "hour")
	case days < 7:
		return agoLabel(days, "day")
	case days < 30:
		return agoLabel(days/7, "week")
	default:
		return agoLabel(days/30, "month")
	}
}

func agoLabel(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// ResolveURL makes an image reference absolute against an instance origin.
// References that already carry a scheme pass through; a leading slash
// resolves against the origin's scheme and host; anything else is joined as
// a relative path. An unusable origin yields an error the caller must treat
// as "no resolvable background".
func ResolveURL(ref, origin string) (string, error) {
	if parsed, err := url.Parse(ref); err == nil && parsed.IsAbs() {
		return ref, nil
	}

	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("resolve %q against %q: %w", ref, origin, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("resolve %q against %q: origin has no scheme or host", ref, origin)
	}

	if strings.HasPrefix(ref, "/") {
		return base.Scheme + "://" + base.Host + ref, nil
	}
	return strings.TrimSuffix(origin, "/") + "/" + ref, nil
}
