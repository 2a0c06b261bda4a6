package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"onboardhub/internal/domain"
)

type actorKey struct{}

// Claims identify the caller. Email wins over subject as the recorded actor.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ActorFrom returns the authenticated actor, or the system actor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return domain.SystemActor
}

func withActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Authenticate verifies HS256 bearer tokens. With an empty secret every
// request runs as the system actor.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		key := []byte(secret)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, &httpError{code: http.StatusUnauthorized, msg: "authorization is required"})
				return
			}
			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, r, &httpError{code: http.StatusUnauthorized, msg: "invalid or expired token"})
				return
			}
			actor := claims.Email
			if actor == "" {
				actor = claims.Subject
			}
			if actor == "" {
				writeError(w, r, &httpError{code: http.StatusUnauthorized, msg: "token has no subject"})
				return
			}
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
		})
	}
}

func bearer(h string) (string, bool) {
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}
