package api

import "net/http"

// dashboardHandler serves the embedded dashboard SPA for every tab path.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(dashboardHTML))
}
