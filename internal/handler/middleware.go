package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/shopcart/internal/domain/auth"
	"github.com/xenking/shopcart/internal/domain/user"
)

// identityKey is the context key for the resolved caller identity.
type identityKey struct{}

// identityFrom returns the caller identity stored by RequireAuth.
func identityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}

// RequireAuth resolves the bearer access token into an Identity and stores
// it in the request context. Malformed or expired tokens get 401; a token
// whose subject no longer exists gets 404.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		id, err := h.auth.Resolve(r.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenMalformed), errors.Is(err, auth.ErrTokenExpired):
				respondError(w, http.StatusUnauthorized, "invalid access token")
			case errors.Is(err, user.ErrNotFound):
				respondError(w, http.StatusNotFound, "user not found")
			default:
				respondInternal(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
