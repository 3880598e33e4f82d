package api

import "net/http"

// NewServer wires the handlers into the portal's HTTP surface.
func NewServer(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/instance-status", h.GetInstanceStatus)
	mux.HandleFunc("GET /api/worlds", h.GetWorlds)
	mux.HandleFunc("DELETE /api/worlds/{key}", h.DeleteWorld)
	mux.HandleFunc("GET /api/session", h.GetSession)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("POST /api/init", h.Init)
	mux.HandleFunc("GET /api/config", h.GetConfig)
	mux.HandleFunc("POST /api/config", h.UpdateConfig)

	return mux
}
