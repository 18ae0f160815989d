package testutil

import (
	"net/http"
	"strings"

	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

func withPrincipal(req *http.Request, id string, kind requestcontext.PrincipalKind) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{ID: id, Kind: kind})
	return req.WithContext(ctx)
}

// StubAuth stands in for the auth middleware: the bearer value is taken as
// the principal id of the given kind. Requests without one get a 401.
func StubAuth(kind requestcontext.PrincipalKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || id == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, no token"))
				return
			}
			next.ServeHTTP(w, withPrincipal(r, id, kind))
		})
	}
}

// Bearer sets the Authorization header StubAuth reads.
func Bearer(req *http.Request, id string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+id)
	return req
}
