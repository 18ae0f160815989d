// Package requesttime pins a single "now" for the whole request so the
// timestamps written by one call agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"refeera/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
