package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pv/foundry-portal/internal/portal"
)

const joinPage = `<!DOCTYPE html>
<html>
<head><title>Curse of Strahd</title></head>
<body style="--background-url: url('/worlds/strahd/cover.webp')">
<h1>Join Game Session</h1>
<p>Current Players: 2 / 5</p>
</body>
</html>`

const authPage = `<!DOCTYPE html>
<html>
<head><title>Foundry Virtual Tabletop</title></head>
<body><form>Access Key</form></body>
</html>`

func newProber() *Prober {
	return New(2 * time.Second)
}

func TestCheckActiveWorld(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/join", http.StatusFound)
			return
		}
		w.Write([]byte(joinPage))
	}))
	defer srv.Close()

	res := newProber().Check(context.Background(), srv.URL)

	if res.Status != portal.StatusActive {
		t.Fatalf("expected active, got %s", res.Status)
	}
	if res.ActiveWorld == nil {
		t.Fatal("expected active world")
	}
	if res.ActiveWorld.Name != "Curse of Strahd" {
		t.Errorf("unexpected world name %q", res.ActiveWorld.Name)
	}
	if res.ActiveWorld.Players != "2 / 5" {
		t.Errorf("unexpected players %q", res.ActiveWorld.Players)
	}
	if res.Background != "/worlds/strahd/cover.webp" {
		t.Errorf("unexpected background %q", res.Background)
	}
}

func TestCheckPlayersMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/join", http.StatusFound)
			return
		}
		w.Write([]byte(`<html><head><title>Lost Mines</title></head><body></body></html>`))
	}))
	defer srv.Close()

	res := newProber().Check(context.Background(), srv.URL)

	if res.Status != portal.StatusActive {
		t.Fatalf("expected active, got %s", res.Status)
	}
	if res.ActiveWorld.Players != "Unknown / Unknown" {
		t.Errorf("unexpected players %q", res.ActiveWorld.Players)
	}
}

func TestCheckIdleOnAuthPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/auth", http.StatusFound)
			return
		}
		w.Write([]byte(authPage))
	}))
	defer srv.Close()

	res := newProber().Check(context.Background(), srv.URL)

	if res.Status != portal.StatusIdle {
		t.Fatalf("expected idle, got %s", res.Status)
	}
	if res.ActiveWorld != nil {
		t.Error("idle instance must not report an active world")
	}
}

func TestCheckIdleByTitleWithoutRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(authPage))
	}))
	defer srv.Close()

	res := newProber().Check(context.Background(), srv.URL)

	if res.Status != portal.StatusIdle {
		t.Fatalf("expected idle, got %s", res.Status)
	}
}

func TestCheckOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := newProber().Check(context.Background(), url)

	if res.Status != portal.StatusOffline {
		t.Fatalf("expected offline, got %s", res.Status)
	}
}

func TestCheckOfflineOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := newProber().Check(context.Background(), srv.URL)

	if res.Status != portal.StatusOffline {
		t.Fatalf("expected offline, got %s", res.Status)
	}
}

func TestCheckUnrecognizedPageIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Some other app</title></head></html>`))
	}))
	defer srv.Close()

	res := newProber().Check(context.Background(), srv.URL)

	if res.Status != portal.StatusOffline {
		t.Fatalf("expected offline, got %s", res.Status)
	}
}
