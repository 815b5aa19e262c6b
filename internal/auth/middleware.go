package auth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// AuthMiddleware guards plain http handlers such as the kiosk WebSocket.
// Session cookies past half their lifetime are reissued.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" {
			userID, err := h.userFromAPIKey(apiKey)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), UserIDKey, userID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case errors.Is(err, errExpiredAPIKey):
				http.Error(w, "Unauthorized: API Key expired", http.StatusUnauthorized)
				return
			case !errors.Is(err, errUnknownAPIKey):
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		userID, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		if !exp.IsZero() && time.Until(exp) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(userID); err == nil {
				http.SetCookie(w, h.sessionCookie(newToken))
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
