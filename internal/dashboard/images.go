package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// probeReadLimit bounds how much of an image is pulled to confirm it loads.
const probeReadLimit = 256 << 10

// ImageProber checks that an image URL actually loads.
type ImageProber interface {
	Probe(ctx context.Context, url string) error
}

// HTTPImageProber fetches the URL and accepts any OK image response.
type HTTPImageProber struct {
	client *http.Client
}

func NewHTTPImageProber(timeout time.Duration) *HTTPImageProber {
	return &HTTPImageProber{
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPImageProber) Probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, probeReadLimit))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image %s: status %d", rawURL, resp.StatusCode)
	}
	// A non-image answer is the decode-failure case: the server responded,
	// but not with something a card could display.
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("image %s: content type %s", rawURL, ct)
	}
	return nil
}

// BackgroundLoader resolves candidate background references and substitutes
// the fallback asset when a candidate cannot be loaded.
type BackgroundLoader struct {
	prober   ImageProber
	fallback string
}

func NewBackgroundLoader(prober ImageProber, fallbackAsset string) *BackgroundLoader {
	return &BackgroundLoader{
		prober:   prober,
		fallback: fallbackAsset,
	}
}

// Fallback returns the asset used when no candidate loads.
func (l *BackgroundLoader) Fallback() string {
	return l.fallback
}

// Load decides the background for one card and calls apply exactly once. A
// missing or unresolvable candidate falls back synchronously; a real
// candidate is probed on its own goroutine, so loads for different cards
// race independently and never block a render pass. There is no retry: a
// failed load stands until the next render re-invokes the pipeline.
func (l *BackgroundLoader) Load(ctx context.Context, candidate, origin string, apply func(url string)) {
	if candidate == "" {
		apply(l.fallback)
		return
	}

	resolved, err := ResolveURL(candidate, origin)
	if err != nil {
		apply(l.fallback)
		return
	}

	// The load must outlive the caller: render passes and their contexts
	// finish before the probe does, and a finished render is no reason to
	// abandon the fetch. The prober's own timeout bounds it instead.
	probeCtx := context.WithoutCancel(ctx)
	go func() {
		if err := l.prober.Probe(probeCtx, resolved); err != nil {
			apply(l.fallback)
			return
		}
		apply(resolved)
	}()
}
