package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	visitorCookie    = "jobnotify_visitor"
	visitorCookieAge = 180 * 24 * time.Hour
)

// visitorID returns the visitor's identifier, issuing a cookie on first
// contact. Malformed cookies are replaced.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorCookieAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
