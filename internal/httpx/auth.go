package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const userIDKey ctxKey = iota

// RequireUser: autentikasi sendiri ada di gateway depan (di luar service ini);
// identitas user sudah diverifikasi dan dititip lewat header X-User-Id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get("X-User-Id")
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, uid)))
	})
}

func UserID(r *http.Request) string {
	uid, _ := r.Context().Value(userIDKey).(string)
	return uid
}
