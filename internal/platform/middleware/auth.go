package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"coopgate/internal/session"
	dErrors "coopgate/pkg/domain-errors"
	"coopgate/pkg/platform/httputil"
)

// TokenValidator turns a raw bearer token into an authenticated actor.
type TokenValidator interface {
	Validate(raw string) (session.Actor, error)
}

// Actor extracts an optional bearer token and, when present, places the
// authenticated actor in the request context. Requests without an
// Authorization header pass through anonymously; a header that fails
// validation is rejected so callers never proceed with a half-trusted
// identity.
func Actor(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed Authorization header"))
				return
			}

			actor, err := validator.Validate(raw)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected bearer token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx := session.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a subtree so only actors with one of the given roles
// pass. Anonymous requests get 401, authenticated but unqualified ones 403.
func RequireRole(logger *slog.Logger, roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := session.FromContext(r.Context())
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(r.Context(), "actor lacks required role",
				"role", actor.Role,
				"request_id", GetRequestID(r.Context()),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
		})
	}
}
