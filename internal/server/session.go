package server

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
)

// Cookie names for the session-scoped CSRF token and the voter key.
const (
	csrfCookie  = "rw_csrf"
	voterCookie = "rw_voter"
)

type ctxKey int

const (
	ctxCSRF ctxKey = iota
	ctxVoter
)

// withSession ensures every request carries a CSRF token and a voter
// key cookie, issuing them on first contact. The voter key is a
// best-effort identity signal, not an authentication mechanism.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		csrf := cookieOrSet(w, r, csrfCookie, newCSRFToken)
		voter := cookieOrSet(w, r, voterCookie, uuid.NewString)

		ctx := context.WithValue(r.Context(), ctxCSRF, csrf)
		ctx = context.WithValue(ctx, ctxVoter, voter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func cookieOrSet(w http.ResponseWriter, r *http.Request, name string, gen func() string) string {
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}
	v := gen()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   24 * 60 * 60,
	})
	return v
}

func newCSRFToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}

// csrfToken returns the token bound to this request's session.
func csrfToken(r *http.Request) string {
	t, _ := r.Context().Value(ctxCSRF).(string)
	return t
}

// voterKey returns the caller's voter key.
func voterKey(r *http.Request) string {
	v, _ := r.Context().Value(ctxVoter).(string)
	return v
}

// validCSRF compares a submitted token against the session token.
func validCSRF(r *http.Request, submitted string) bool {
	expected := csrfToken(r)
	if expected == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
