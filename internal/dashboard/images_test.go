package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFallback = "/static/images/background.jpg"

func serveImage(t *testing.T, status int, contentType string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		} else {
			// Suppress net/http's content sniffing so the response
			// really has no Content-Type header.
			w.Header()["Content-Type"] = nil
		}
		w.WriteHeader(status)
		w.Write([]byte("payload"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func awaitApply(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("apply was never called")
		return ""
	}
}

func TestLoadEmptyCandidateFallsBackSynchronously(t *testing.T) {
	loader := NewBackgroundLoader(NewHTTPImageProber(time.Second), testFallback)

	var got string
	loader.Load(context.Background(), "", "http://origin.example", func(url string) { got = url })
	assert.Equal(t, testFallback, got)
}

func TestLoadUnresolvableCandidateFallsBackSynchronously(t *testing.T) {
	loader := NewBackgroundLoader(NewHTTPImageProber(time.Second), testFallback)

	var got string
	loader.Load(context.Background(), "/bg.png", "not a url", func(url string) { got = url })
	assert.Equal(t, testFallback, got)
}

func TestLoadAppliesResolvedURLWhenImageLoads(t *testing.T) {
	srv := serveImage(t, http.StatusOK, "image/jpeg")
	loader := NewBackgroundLoader(NewHTTPImageProber(time.Second), testFallback)

	ch := make(chan string, 1)
	loader.Load(context.Background(), "/bg.jpg", srv.URL, func(url string) { ch <- url })

	assert.Equal(t, srv.URL+"/bg.jpg", awaitApply(t, ch))
}

func TestLoadFallsBackOnErrorStatus(t *testing.T) {
	srv := serveImage(t, http.StatusNotFound, "image/jpeg")
	loader := NewBackgroundLoader(NewHTTPImageProber(time.Second), testFallback)

	ch := make(chan string, 1)
	loader.Load(context.Background(), "/bg.jpg", srv.URL, func(url string) { ch <- url })

	assert.Equal(t, testFallback, awaitApply(t, ch))
}

func TestLoadFallsBackOnNonImageResponse(t *testing.T) {
	srv := serveImage(t, http.StatusOK, "text/html")
	loader := NewBackgroundLoader(NewHTTPImageProber(time.Second), testFallback)

	ch := make(chan string, 1)
	loader.Load(context.Background(), "/bg.jpg", srv.URL, func(url string) { ch <- url })

	assert.Equal(t, testFallback, awaitApply(t, ch))
}

func TestLoadOutlivesCallerContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("payload"))
	}))
	t.Cleanup(srv.Close)

	loader := NewBackgroundLoader(NewHTTPImageProber(2*time.Second), testFallback)

	// Cancelling right after Load returns mirrors a render pass whose
	// context ends before the slow image answers; the load must still
	// finish and apply the real URL.
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan string, 1)
	loader.Load(ctx, "/bg.jpg", srv.URL, func(url string) { ch <- url })
	cancel()

	assert.Equal(t, srv.URL+"/bg.jpg", awaitApply(t, ch))
}

func TestLoadFallsBackOnUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	loader := NewBackgroundLoader(NewHTTPImageProber(time.Second), testFallback)

	ch := make(chan string, 1)
	loader.Load(context.Background(), "/bg.jpg", srv.URL, func(url string) { ch <- url })

	assert.Equal(t, testFallback, awaitApply(t, ch))
}

func TestHTTPImageProberAcceptsMissingContentType(t *testing.T) {
	srv := serveImage(t, http.StatusOK, "")
	prober := NewHTTPImageProber(time.Second)

	require.NoError(t, prober.Probe(context.Background(), srv.URL+"/bg.jpg"))
}
