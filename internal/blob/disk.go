// Package blob stores uploaded company documents on local disk.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultPublicPrefix is the URL prefix documents are served under.
const DefaultPublicPrefix = "/uploads"

// fallbackName replaces a file name that sanitizes to nothing.
const fallbackName = "file"

// DiskStore writes each document to baseDir as "<unix millis>-<name>".
type DiskStore struct {
	baseDir string
	prefix  string
	now     func() time.Time
}

// NewDiskStore creates baseDir if needed and returns a store rooted there.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create upload directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir, prefix: DefaultPublicPrefix, now: time.Now}, nil
}

// Put copies content to a new file and returns its public reference.
func (s *DiskStore) Put(ctx context.Context, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := sanitizeName(filename)
	if name == "" {
		name = fallbackName
	}
	stored := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + name
	absPath := filepath.Join(s.baseDir, stored)

	// O_EXCL keeps two uploads in the same millisecond from clobbering each other.
	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blob: create file: %w", err)
	}
	if _, err := io.Copy(dst, content); err != nil {
		_ = dst.Close()
		_ = os.Remove(absPath)
		return "", fmt.Errorf("blob: write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(absPath)
		return "", fmt.Errorf("blob: close file: %w", err)
	}
	return s.prefix + "/" + stored, nil
}

// Handler serves stored documents. Mount it behind http.StripPrefix.
func (s *DiskStore) Handler() http.Handler {
	return http.FileServer(noDirFS{http.Dir(s.baseDir)})
}

// sanitizeName keeps the base name and replaces characters that are unsafe
// in paths or URLs.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > 120 {
		out = out[len(out)-120:]
	}
	return out
}

// noDirFS hides directory listings.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
