package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pv/foundry-portal/internal/config"
	"github.com/pv/foundry-portal/internal/logger"
	"github.com/pv/foundry-portal/internal/portal"
	"github.com/pv/foundry-portal/internal/storage"
)

// StatusSource provides the reconciled snapshots the API serves. The poller
// implements it.
type StatusSource interface {
	Instances() []portal.Instance
	Worlds() ([]portal.World, error)
	Kick()
}

type Handlers struct {
	store    *config.Store
	source   StatusSource
	history  storage.Storage
	sessions *SessionManager
	log      *slog.Logger
}

func NewHandlers(store *config.Store, source StatusSource, history storage.Storage, sessions *SessionManager) *Handlers {
	return &Handlers{
		store:    store,
		source:   source,
		history:  history,
		sessions: sessions,
		log:      logger.With("api"),
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *Handlers) session(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	sess, ok := h.sessions.Get(cookie.Value)
	if !ok {
		return nil
	}
	return sess
}

// viewerLocked reports whether the request may see the dashboard data. A set
// viewer password locks anonymous sessions out; admins always pass.
func (h *Handlers) viewerLocked(r *http.Request) bool {
	cfg := h.store.Get()
	if cfg.ViewerPasswordHash == "" {
		return false
	}
	sess := h.session(r)
	return sess == nil || (!sess.Viewer && !sess.Admin)
}

// checkViewer gates the polling endpoints. Unconfigured and locked states
// must reject, so clients that skip their own gate still cannot read data.
func (h *Handlers) checkViewer(w http.ResponseWriter, r *http.Request) bool {
	if !h.store.IsConfigured() {
		h.writeError(w, http.StatusForbidden, "portal is not configured")
		return false
	}
	if h.viewerLocked(r) {
		h.writeError(w, http.StatusUnauthorized, "viewer access required")
		return false
	}
	return true
}

func (h *Handlers) checkAdmin(w http.ResponseWriter, r *http.Request) bool {
	sess := h.session(r)
	if sess == nil || !sess.Admin {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

// GetInstanceStatus returns the current instance snapshot.
// GET /api/instance-status
func (h *Handlers) GetInstanceStatus(w http.ResponseWriter, r *http.Request) {
	if !h.checkViewer(w, r) {
		return
	}

	instances := h.source.Instances()
	if instances == nil {
		instances = []portal.Instance{}
	}
	h.writeJSON(w, instances)
}

// GetWorlds returns the reconciled cross-instance world list.
// GET /api/worlds
func (h *Handlers) GetWorlds(w http.ResponseWriter, r *http.Request) {
	if !h.checkViewer(w, r) {
		return
	}

	worlds, err := h.source.Worlds()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if worlds == nil {
		worlds = []portal.World{}
	}
	h.writeJSON(w, worlds)
}

// DeleteWorld removes one world from history.
// DELETE /api/worlds/{key}
func (h *Handlers) DeleteWorld(w http.ResponseWriter, r *http.Request) {
	if !h.checkAdmin(w, r) {
		return
	}

	instanceName, worldName, err := portal.ParseWorldKey(r.PathValue("key"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.history.Delete(instanceName, worldName)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if ok {
		h.log.Info("World removed from history", "instance", instanceName, "world", worldName)
	}
	h.writeJSON(w, map[string]bool{"success": ok})
}

// GetSession reports the gate state clients need before they start polling.
// GET /api/session
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	h.writeJSON(w, map[string]bool{
		"configured":    h.store.IsConfigured(),
		"viewer_locked": h.viewerLocked(r),
		"is_admin":      sess != nil && sess.Admin,
	})
}

type loginRequest struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login authenticates a role password and attaches the role to the session.
// POST /api/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = "admin"
	}

	cfg := h.store.Get()

	var admin, viewer bool
	switch req.Role {
	case "admin":
		admin = config.CheckPassword(cfg.AdminPasswordHash, req.Password)
	case "viewer":
		viewer = config.CheckPassword(cfg.ViewerPasswordHash, req.Password)
	}

	if !admin && !viewer {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "Invalid password"})
		return
	}

	var token string
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		token = cookie.Value
	}
	sess := h.sessions.Grant(token, admin, viewer)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.Info("Login", "role", req.Role)
	h.writeJSON(w, map[string]bool{"success": true})
}

// Logout drops the session.
// POST /api/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Drop(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	h.writeJSON(w, map[string]bool{"success": true})
}

type initRequest struct {
	AdminPassword string `json:"admin_password"`
}

// Init performs first-time setup when no admin password exists yet.
// POST /api/init
func (h *Handlers) Init(w http.ResponseWriter, r *http.Request) {
	if h.store.IsConfigured() {
		h.writeError(w, http.StatusForbidden, "Already configured")
		return
	}

	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AdminPassword == "" {
		h.writeError(w, http.StatusBadRequest, "Password required")
		return
	}

	hash, err := config.HashPassword(req.AdminPassword)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	err = h.store.Update(func(p *config.Portal) {
		p.AdminPasswordHash = hash
		p.SharedDataMode = false
		p.Instances = nil
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info("Portal initialized")
	h.writeJSON(w, map[string]bool{"success": true})
}

// GetConfig returns the editable configuration without password hashes.
// GET /api/config
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	if !h.checkAdmin(w, r) {
		return
	}

	cfg := h.store.Get()
	instances := cfg.Instances
	if instances == nil {
		instances = []config.InstanceConfig{}
	}

	h.writeJSON(w, map[string]interface{}{
		"shared_data_mode":      cfg.SharedDataMode,
		"instances":             instances,
		"viewer_access_enabled": cfg.ViewerPasswordHash != "",
	})
}

type configRequest struct {
	SharedDataMode    *bool                   `json:"shared_data_mode"`
	Instances         []config.InstanceConfig `json:"instances"`
	NewAdminPassword  string                  `json:"new_admin_password"`
	NewViewerPassword *string                 `json:"new_viewer_password"`
}

// UpdateConfig saves configuration changes and triggers an immediate poll so
// the dashboard reflects them without waiting for the next cycle.
// POST /api/config
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	if !h.checkAdmin(w, r) {
		return
	}

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Instances != nil {
		if err := config.ValidateInstances(req.Instances); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var adminHash, viewerHash string
	var err error
	if req.NewAdminPassword != "" {
		if adminHash, err = config.HashPassword(req.NewAdminPassword); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.NewViewerPassword != nil && *req.NewViewerPassword != "" {
		if viewerHash, err = config.HashPassword(*req.NewViewerPassword); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	err = h.store.Update(func(p *config.Portal) {
		if req.SharedDataMode != nil {
			p.SharedDataMode = *req.SharedDataMode
		}
		if req.Instances != nil {
			p.Instances = req.Instances
		}
		if adminHash != "" {
			p.AdminPasswordHash = adminHash
		}
		if req.NewViewerPassword != nil {
			// An empty viewer password disables viewer lock entirely.
			p.ViewerPasswordHash = viewerHash
		}
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.source.Kick()

	h.log.Info("Configuration updated")
	h.writeJSON(w, map[string]bool{"success": true})
}
