package probe

import (
	"context"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pv/foundry-portal/internal/portal"
)

// maxBodySize caps how much of an instance page is read; the markers we look
// for sit near the top of the document.
const maxBodySize = 1 << 20

var (
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	playersRe    = regexp.MustCompile(`(?i)(?:Current\s+)?Players[:\s]*(\d+)\s*/\s*(\d+)`)
	backgroundRe = regexp.MustCompile(`--background-url:\s*url\(["']?([^"')]+?)["']?\)`)
)

// Result is one observation of an instance.
type Result struct {
	Status      portal.Status
	ActiveWorld *portal.ActiveWorld
	Background  string
}

// Prober classifies Foundry instances by fetching their landing page and
// inspecting where the server redirected us.
type Prober struct {
	client *http.Client
}

func New(timeout time.Duration) *Prober {
	return &Prober{
		client: &http.Client{Timeout: timeout},
	}
}

// Check observes one instance. Unreachable or unrecognizable endpoints come
// back offline; Check itself never fails.
func (p *Prober) Check(ctx context.Context, instanceURL string) Result {
	offline := Result{Status: portal.StatusOffline}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instanceURL, nil)
	if err != nil {
		return offline
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return offline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil || resp.StatusCode != http.StatusOK {
		return offline
	}

	// Foundry redirects to /join while a world is up, to /game for a player
	// session and to /auth or /setup otherwise.
	finalPath := resp.Request.URL.Path
	page := string(body)
	title := extractTitle(page)
	background := extractBackground(page)

	switch {
	case strings.Contains(finalPath, "/join"):
		if title == "" {
			return Result{Status: portal.StatusIdle, Background: background}
		}
		return Result{
			Status:     portal.StatusActive,
			Background: background,
			ActiveWorld: &portal.ActiveWorld{
				Name:       title,
				Background: background,
				Players:    extractPlayers(page),
			},
		}
	case strings.Contains(finalPath, "/game"),
		strings.Contains(finalPath, "/auth"),
		strings.Contains(finalPath, "/setup"),
		strings.Contains(title, "Foundry Virtual Tabletop"):
		return Result{Status: portal.StatusIdle, Background: background}
	default:
		return offline
	}
}

func extractTitle(page string) string {
	m := titleRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// extractPlayers pulls the "Players N / M" counter from the join page.
func extractPlayers(page string) string {
	m := playersRe.FindStringSubmatch(page)
	if m == nil {
		return "Unknown / Unknown"
	}
	return m[1] + " / " + m[2]
}

// extractBackground reads the --background-url CSS variable Foundry sets on
// the page body.
func extractBackground(page string) string {
	m := backgroundRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
