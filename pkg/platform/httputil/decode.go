package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	dErrors "refeera/pkg/domain-errors"
)

// MultipartMemory bounds the in-memory part of a parsed multipart body;
// larger file parts spill to temporary files.
const MultipartMemory = 10 << 20

// DecodeBody decodes a JSON, urlencoded or multipart body into v. Form
// values are re-encoded as a JSON object (repeated keys become arrays) so
// one set of json tags serves every content type. An empty body leaves v
// untouched.
func DecodeBody(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(MultipartMemory); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body")
		}
		return decodeValues(r.MultipartForm.Value, v)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body")
		}
		return decodeValues(r.PostForm, v)
	}

	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

func decodeValues(values url.Values, v any) error {
	obj := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			obj[k] = vs[0]
		default:
			obj[k] = vs
		}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body")
	}
	return nil
}
