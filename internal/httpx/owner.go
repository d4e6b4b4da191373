package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const ownerKey ctxKey = iota

// RequireOwner reads the opaque owner id the identity layer forwards in
// X-User-Id. The core trusts it as given; the header is expected to be set
// by the gateway, never by the end client directly.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get("X-User-Id")
		if owner == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing_owner"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}
