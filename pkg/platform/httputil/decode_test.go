package httputil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/wire"
)

type payload struct {
	Name    string          `json:"name"`
	Partial wire.Bool       `json:"partial"`
	Tags    wire.StringList `json:"tags"`
}

func TestDecodeBody(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","partial":true,"tags":["x"]}`))
		req.Header.Set("Content-Type", "application/json")
		var p payload
		require.NoError(t, DecodeBody(req, &p))
		assert.Equal(t, payload{Name: "a", Partial: true, Tags: wire.StringList{"x"}}, p)
	})

	t.Run("empty json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		var p payload
		require.NoError(t, DecodeBody(req, &p))
		assert.Equal(t, payload{}, p)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var p payload
		err := DecodeBody(req, &p)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("urlencoded with repeated keys", func(t *testing.T) {
		form := url.Values{"name": {"b"}, "partial": {"true"}, "tags": {"x", "y"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var p payload
		require.NoError(t, DecodeBody(req, &p))
		assert.Equal(t, payload{Name: "b", Partial: true, Tags: wire.StringList{"x", "y"}}, p)
	})

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("name", "c"))
		require.NoError(t, mw.WriteField("tags", `["x","y"]`))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		var p payload
		require.NoError(t, DecodeBody(req, &p))
		assert.Equal(t, "c", p.Name)
		assert.False(t, bool(p.Partial))
		assert.Equal(t, wire.StringList{"x", "y"}, p.Tags)
	})
}
