package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"jobnotify/internal/auth"
	"jobnotify/internal/listing"
)

const maxBodyBytes = 1 << 20

type ctxKey int

const sessionKey ctxKey = iota

// sessionFrom returns the verified session attached by requireAdmin.
func sessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey).(*auth.Session)
	return s
}

// audit logs an admin mutation together with the signed-in operator.
func audit(r *http.Request, format string, args ...any) {
	actor := "unknown"
	if sess := sessionFrom(r.Context()); sess != nil && sess.User.Email != "" {
		actor = sess.User.Email
	}
	log.Printf("[web] "+format+" by %s", append(args, actor)...)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireAdmin verifies the bearer token with the identity provider.
func (s *Server) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			jsonError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		sess, err := s.provider.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrNoSession) {
				jsonError(w, "session expired or invalid", http.StatusUnauthorized)
				return
			}
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// ─── Auth ────────────────────────────────────────────────────────────────────

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil ||
		body.Email == "" || body.Password == "" {
		jsonError(w, "body must contain email and password", http.StatusBadRequest)
		return
	}

	sess, err := s.provider.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		jsonError(w, auth.FailureMessage(err), statusFor(err))
		return
	}
	jsonOK(w, sess)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		jsonError(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	if err := s.provider.SignOut(r.Context(), &auth.Session{AccessToken: token}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

func (s *Server) saveJob(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "could not read body", http.StatusBadRequest)
		return
	}
	if err := listing.ValidatePayload(raw); err != nil {
		writeError(w, r, err)
		return
	}

	var job listing.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		jsonError(w, "invalid job document", http.StatusBadRequest)
		return
	}

	saved, err := s.catalog.SaveJob(r.Context(), job)
	if err != nil {
		writeError(w, r, err)
		return
	}
	audit(r, "job %s saved", saved.ID)
	jsonOK(w, saved)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	audit(r, "job %s deleted", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// ─── MasterData ──────────────────────────────────────────────────────────────

func (s *Server) addTag(w http.ResponseWriter, r *http.Request) {
	category, err := listing.ParseCategory(r.PathValue("category"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		jsonError(w, "body must contain value", http.StatusBadRequest)
		return
	}

	if err := s.catalog.AddTag(r.Context(), category, body.Value); err != nil {
		writeError(w, r, err)
		return
	}
	audit(r, "%s tag %q added", category, body.Value)
	jsonStatus(w, http.StatusCreated, s.catalog.Snapshot().Master)
}

func (s *Server) removeTag(w http.ResponseWriter, r *http.Request) {
	category, err := listing.ParseCategory(r.PathValue("category"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.catalog.RemoveTag(r.Context(), category, r.PathValue("value")); err != nil {
		writeError(w, r, err)
		return
	}
	audit(r, "%s tag %q removed", category, r.PathValue("value"))
	jsonOK(w, s.catalog.Snapshot().Master)
}
