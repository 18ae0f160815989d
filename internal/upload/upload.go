// Package upload stores user-supplied images on local disk.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	dErrors "refeera/pkg/domain-errors"
)

// Storage persists an uploaded image and returns the public path it is
// served under.
type Storage interface {
	SaveImage(ctx context.Context, originalName string, r io.Reader) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DiskStorage writes files beneath a single directory. Stored paths are
// relative ("uploads/1700000000000-me.png") and served by the /uploads route.
type DiskStorage struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewDiskStorage(dir string, maxBytes int64) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir is the directory files are written to.
func (s *DiskStorage) Dir() string { return s.dir }

// SaveImage sniffs the content rather than trusting the client's declared
// type, and rejects anything that is not an image.
func (s *DiskStorage) SaveImage(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", dErrors.New(dErrors.CodeInvalidInput, "File is too large")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "Only image files are allowed")
	}

	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + sanitize(originalName, mt.Extension())
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path.Join(filepath.Base(s.dir), name), nil
}

func sanitize(original, ext string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "_" {
		base = "upload" + ext
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return base
}
