package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"refeera/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded header is ignored", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:5000", "10.0.0.2"},
		{"real ip header is ignored", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.2:5000", "10.0.0.2"},
		{"bare remote addr", nil, "192.0.2.10", "192.0.2.10"},
		{"empty remote addr", nil, "", "unknown"},
		{"remote addr ipv4", nil, "192.0.2.10:1234", "192.0.2.10"},
		{"remote addr ipv6", nil, "[::1]:8080", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadata_BehindTrustedProxy(t *testing.T) {
	var got string
	h := middleware.RealIP(ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.ClientIP(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.5", got)
}

func TestDeviceFromContext(t *testing.T) {
	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"
	ctx := requestcontext.WithClientMetadata(context.Background(), "192.0.2.1", ua)

	d := DeviceFromContext(ctx)
	assert.True(t, d.Mobile)
	assert.False(t, d.Bot)
	assert.Contains(t, d.Browser, "Safari")

	assert.Equal(t, Device{}, DeviceFromContext(context.Background()))
}
