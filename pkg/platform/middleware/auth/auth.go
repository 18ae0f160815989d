package auth

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

// Claims is what the token validator extracts from a bearer token.
type Claims struct {
	Subject string
	Kind    requestcontext.PrincipalKind
}

// TokenValidator verifies a bearer token's signature, expiry and audience.
// Errors returned with CodeUnauthorized are shown to the caller as-is.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// PrincipalResolver confirms the token subject still exists.
type PrincipalResolver interface {
	PrincipalExists(ctx context.Context, p requestcontext.Principal) (bool, error)
}

// RequireAuth admits requests bearing a valid token for one of the allowed
// principal kinds whose subject still resolves. With no kinds given, any
// principal is accepted.
func RequireAuth(validator TokenValidator, resolver PrincipalResolver, logger *slog.Logger, kinds ...requestcontext.PrincipalKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, no token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					err = dErrors.New(dErrors.CodeUnauthorized, "Token verification failed")
				}
				httputil.WriteError(w, err)
				return
			}

			if len(kinds) > 0 && !slices.Contains(kinds, claims.Kind) {
				logger.WarnContext(ctx, "unauthorized access - wrong principal kind",
					"kind", claims.Kind,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized for this resource"))
				return
			}

			principal := requestcontext.Principal{ID: claims.Subject, Kind: claims.Kind}
			exists, err := resolver.PrincipalExists(ctx, principal)
			if err != nil {
				logger.ErrorContext(ctx, "failed to resolve token subject",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}
			if !exists {
				logger.WarnContext(ctx, "unauthorized access - subject not found",
					"kind", claims.Kind,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, "+string(claims.Kind)+" not found"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	after = strings.TrimSpace(after)
	return after, ok && after != ""
}
