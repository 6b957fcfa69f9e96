package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/projecthub/projecthub/internal/server/models"
)

type cookieSettings struct {
	name   string
	secure bool
	maxAge time.Duration
}

func (c cookieSettings) set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
		MaxAge:   int(c.maxAge.Seconds()),
	})
}

func (c cookieSettings) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
		MaxAge:   -1,
	})
}

// withSession loads the session named by the cookie into the request
// context and writes it back before the response header goes out.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookieValue string
		if c, err := r.Cookie(s.cookie.name); err == nil {
			cookieValue = c.Value
		}

		sess, err := s.sessions.Load(r.Context(), cookieValue)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		sw := &sessionWriter{ResponseWriter: w, ctx: r.Context(), srv: s, sess: sess}
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		sw.commit()
	})
}

// sessionWriter persists the session on the first WriteHeader or Write, so
// the Set-Cookie header is still writable.
type sessionWriter struct {
	http.ResponseWriter
	ctx       context.Context
	srv       *Server
	sess      *models.Session
	committed bool
}

func (sw *sessionWriter) commit() {
	if sw.committed {
		return
	}
	sw.committed = true

	switch {
	case sw.sess.Cleared():
		if err := sw.srv.sessions.Destroy(sw.ctx, sw.sess); err != nil {
			sw.srv.logger.Error(sw.ctx, "session destroy failed", "error", err)
		}
		sw.srv.cookie.clear(sw.ResponseWriter)
	case sw.sess.Changed():
		token, err := sw.srv.sessions.Save(sw.ctx, sw.sess)
		if err != nil {
			sw.srv.logger.Error(sw.ctx, "session save failed", "error", err)
			return
		}
		sw.srv.cookie.set(sw.ResponseWriter, token)
	}
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.commit()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	return sw.ResponseWriter.Write(b)
}

func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
