package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pv/foundry-portal/internal/config"
	"github.com/pv/foundry-portal/internal/portal"
	"github.com/pv/foundry-portal/internal/probe"
	"github.com/pv/foundry-portal/internal/storage"
)

// mockInstance serves a minimal Foundry join page.
func mockInstance(world string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/join", http.StatusFound)
			return
		}
		w.Write([]byte(`<html><head><title>` + world + `</title></head>` +
			`<body style="--background-url: url(/img/bg.webp)">Players: 1 / 4</body></html>`))
	}))
}

func newTestStore(t *testing.T, instances []config.InstanceConfig, shared bool) *config.Store {
	t.Helper()

	store, err := config.OpenStore(filepath.Join(t.TempDir(), "portal.yaml"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	err = store.Update(func(p *config.Portal) {
		p.AdminPasswordHash = "x"
		p.SharedDataMode = shared
		p.Instances = instances
	})
	if err != nil {
		t.Fatalf("update store: %v", err)
	}
	return store
}

func TestPollRecordsSnapshotAndSightings(t *testing.T) {
	inst := mockInstance("Curse of Strahd")
	defer inst.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downURL := down.URL
	down.Close()

	store := newTestStore(t, []config.InstanceConfig{
		{Name: "alpha", URL: inst.URL},
		{Name: "beta", URL: downURL},
	}, false)

	history := storage.NewMemoryStorage()
	defer history.Close()

	p := New(store, history, probe.New(2*time.Second), 5*time.Second, 0)
	p.poll(context.Background())

	instances := p.Instances()
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	if instances[0].Name != "alpha" || instances[0].Status != portal.StatusActive {
		t.Errorf("unexpected alpha: %+v", instances[0])
	}
	if instances[0].ActiveWorld == nil || instances[0].ActiveWorld.Name != "Curse of Strahd" {
		t.Errorf("missing active world on alpha: %+v", instances[0].ActiveWorld)
	}
	if instances[1].Status != portal.StatusOffline {
		t.Errorf("expected beta offline, got %s", instances[1].Status)
	}

	recs, err := history.List()
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "Curse of Strahd" || recs[0].InstanceName != "alpha" {
		t.Fatalf("unexpected history: %+v", recs)
	}
}

func TestWorldsReconciliation(t *testing.T) {
	inst := mockInstance("Curse of Strahd")
	defer inst.Close()

	store := newTestStore(t, []config.InstanceConfig{{Name: "alpha", URL: inst.URL}}, false)

	history := storage.NewMemoryStorage()
	defer history.Close()

	// An old sighting from an instance that is no longer configured.
	history.Upsert(storage.WorldRecord{
		InstanceName: "gone", Name: "Avernus",
		LastSeen: time.Now().Add(-48 * time.Hour),
	})

	p := New(store, history, probe.New(2*time.Second), 5*time.Second, 0)
	p.poll(context.Background())

	worlds, err := p.Worlds()
	if err != nil {
		t.Fatalf("worlds: %v", err)
	}
	if len(worlds) != 2 {
		t.Fatalf("expected 2 worlds, got %d", len(worlds))
	}

	// Most recent sighting first.
	if worlds[0].Name != "Curse of Strahd" || worlds[0].Status != portal.StatusActive {
		t.Errorf("unexpected first world: %+v", worlds[0])
	}
	if worlds[0].InstanceURL != inst.URL {
		t.Errorf("active world missing instance url: %+v", worlds[0])
	}
	if worlds[1].Name != "Avernus" || worlds[1].Status != portal.StatusOffline {
		t.Errorf("unconfigured instance must leave its worlds offline: %+v", worlds[1])
	}
}

func TestWorldsSharedDataModeCollapsesDuplicates(t *testing.T) {
	store := newTestStore(t, nil, true)

	history := storage.NewMemoryStorage()
	defer history.Close()

	now := time.Now()
	history.Upsert(storage.WorldRecord{InstanceName: "alpha", Name: "Strahd", LastSeen: now})
	history.Upsert(storage.WorldRecord{InstanceName: "beta", Name: "Strahd", LastSeen: now.Add(-time.Hour)})

	p := New(store, history, probe.New(2*time.Second), 5*time.Second, 0)

	worlds, err := p.Worlds()
	if err != nil {
		t.Fatalf("worlds: %v", err)
	}
	if len(worlds) != 1 {
		t.Fatalf("expected 1 world in shared mode, got %d", len(worlds))
	}
	if worlds[0].InstanceName != "alpha" {
		t.Errorf("expected most recent sighting to win, got %+v", worlds[0])
	}
}
