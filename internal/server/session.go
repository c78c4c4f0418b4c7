package server

import (
	"context"
	"net/http"

	"github.com/Sternrassler/artic-browser/internal/app"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "artic_session"

type ctxKey struct{}

// withSession attaches the caller's controller, starting a session when the
// cookie is missing or no longer known.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c *app.Controller
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			c, _ = s.sessions.Get(cookie.Value)
		}
		if c == nil {
			var id string
			id, c = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
	})
}

func controllerFrom(ctx context.Context) *app.Controller {
	return ctx.Value(ctxKey{}).(*app.Controller)
}
