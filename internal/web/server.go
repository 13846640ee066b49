// Package web serves the public listing and the admin API over HTTP.
//
// Routes:
//
//	GET    /                                       → listing page (q, board, location, eligibility)
//	POST   /saved/{id}                             → toggle a saved job, redirect back
//	GET    /health                                 → liveness
//	GET    /api/jobs                               → filtered jobs with derived status
//	GET    /api/master-data                        → the three vocabularies
//	GET    /api/stats                              → quick stats
//	GET    /api/saved                              → visitor's saved job ids
//	POST   /api/saved/{id}                         → toggle a saved job
//	POST   /api/auth/login                         → password sign-in
//	POST   /api/auth/logout                        → end the bearer's session
//	POST   /api/admin/jobs                         → create or update a job
//	DELETE /api/admin/jobs/{id}                    → delete a job
//	POST   /api/admin/master-data/{category}       → add a tag
//	DELETE /api/admin/master-data/{category}/{value} → remove a tag
//
// Admin routes require "Authorization: Bearer <access token>" verified by the
// identity provider.
package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"jobnotify/internal/auth"
	"jobnotify/internal/catalog"
	"jobnotify/internal/listing"
	"jobnotify/internal/saved"
)

// Version is reported by /health.
const Version = "1.0.0"

// ─── Server ──────────────────────────────────────────────────────────────────

// Server holds shared dependencies.
type Server struct {
	catalog  *catalog.Catalog
	provider auth.Provider
	slots    saved.Slots
	now      func() time.Time
	page     *template.Template
}

// NewServer returns a configured Server.
func NewServer(c *catalog.Catalog, provider auth.Provider, slots saved.Slots) *Server {
	return &Server{
		catalog:  c,
		provider: provider,
		slots:    slots,
		now:      time.Now,
		page:     mustParseTemplates(),
	}
}

// WithClock replaces the time source used for derived status.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// RegisterRoutes mounts every route on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.listingPage)
	mux.HandleFunc("POST /saved/{id}", s.toggleSavedForm)
	mux.HandleFunc("GET /health", healthHandler)

	mux.HandleFunc("GET /api/jobs", s.listJobs)
	mux.HandleFunc("GET /api/master-data", s.getMasterData)
	mux.HandleFunc("GET /api/stats", s.getStats)
	mux.HandleFunc("GET /api/saved", s.listSaved)
	mux.HandleFunc("POST /api/saved/{id}", s.toggleSaved)

	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.logout)

	mux.Handle("POST /api/admin/jobs", s.requireAdmin(s.saveJob))
	mux.Handle("DELETE /api/admin/jobs/{id}", s.requireAdmin(s.deleteJob))
	mux.Handle("POST /api/admin/master-data/{category}", s.requireAdmin(s.addTag))
	mux.Handle("DELETE /api/admin/master-data/{category}/{value}", s.requireAdmin(s.removeTag))
}

// Handler returns a mux with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "jobnotify",
		"version": Version,
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognised is
// a store failure.
func statusFor(err error) int {
	var ve *listing.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, catalog.ErrEmptyTag),
		errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrDuplicateTag), errors.Is(err, catalog.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusBadGateway {
		log.Printf("[web] %s %s: %v", r.Method, r.URL.Path, err)
	}
	jsonError(w, err.Error(), code)
}
