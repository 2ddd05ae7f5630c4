package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

type UserIDKeyType struct{}

func userIDFrom(r *http.Request) string {
	userID, _ := r.Context().Value(UserIDKeyType{}).(string)
	return userID
}

func tokenFrom(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), nil
	}

	jwtCookie, err := r.Cookie("JWT")
	if err != nil {
		return "", err
	}
	return jwtCookie.Value, nil
}

// UserVerifier lets through requests of the session user only. Without a signer every
// request is treated as coming from the session user.
func (h *Handlers) UserVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Signer == nil {
			ctx := context.WithValue(r.Context(), UserIDKeyType{}, h.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, err := tokenFrom(r)
		if err != nil {
			h.sugar.Debug(err)
			switch {
			case errors.Is(err, http.ErrNoCookie):
				http.Error(w, "No jwt cookie was provided", http.StatusUnauthorized)
			default:
				http.Error(w, "Couldn't read jwt cookie", http.StatusInternalServerError)
			}
			return
		}

		userToken, err := h.Signer.VerifyToken(token)
		if err != nil {
			h.sugar.Debug(err)
			http.Error(w, "Couldn't verify JWT", http.StatusUnauthorized)
			return
		}

		if userToken.UserID != h.UserID {
			h.sugar.Warnf("User ID [%s] tried to use the session of user ID [%s]", userToken.UserID, h.UserID)
			http.Error(w, "", http.StatusForbidden)
			return
		}

		// renew JWT and cookie
		if userToken.IssuedAt != nil && time.Since(userToken.IssuedAt.Time) >= 15*time.Minute {
			renewed, expires, err := h.Signer.CreateToken(userToken.Remember, userToken.UserID)
			if err != nil {
				h.sugar.Error(err)
				http.Error(w, "Couldn't renew cookie", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     "JWT",
				Value:    renewed,
				Path:     "/",
				Expires:  expires,
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}

		ctx := context.WithValue(r.Context(), UserIDKeyType{}, userToken.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
