package metadata

import (
	"context"
	"net"
	"net/http"

	"github.com/mssola/useragent"

	"refeera/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest returns the host part of the connection's remote
// address. Forwarding headers are ignored here: when the server runs behind a
// trusted proxy, chi's middleware.RealIP rewrites RemoteAddr before this runs.
func ClientIPFromRequest(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Device is a coarse description of the calling client, attached to audit
// events.
type Device struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// DeviceFromContext parses the User-Agent stored by ClientMetadata.
func DeviceFromContext(ctx context.Context) Device {
	raw := requestcontext.UserAgent(ctx)
	if raw == "" {
		return Device{}
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	browser := name
	if version != "" {
		browser = name + " " + version
	}
	return Device{
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}
