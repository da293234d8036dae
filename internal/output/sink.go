// Package output delivers a generated declaration file to its destination:
// the local filesystem, a writer (dry run) or an object store bucket.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/filestore"
)

// Sink receives the complete generated text in one call.
type Sink interface {
	// Write stores content and returns a human-readable location.
	Write(ctx context.Context, content string) (string, error)
}

// FileSink writes to Path, creating parent directories first. The file is
// written to a temporary sibling and renamed into place, so readers never
// observe a partial file.
type FileSink struct {
	Path string
}

func (s FileSink) Write(_ context.Context, content string) (string, error) {
	if s.Path == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "output path is required")
	}
	path, err := filepath.Abs(s.Path)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "resolve output path", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fsError("create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fsError("create temporary file", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fsError("write output", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fsError("chmod output", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fsError("close output", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fsError("move output into place", err)
	}
	return path, nil
}

// fsError files permission problems as permission_denied and every other
// filesystem failure as a storage operation error.
func fsError(msg string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// DryRun prints the content to W instead of persisting it.
type DryRun struct {
	W io.Writer
}

func (s DryRun) Write(_ context.Context, content string) (string, error) {
	if _, err := io.WriteString(s.W, content); err != nil {
		return "", errs.Wrap(errs.ErrKindQueryFailed, "write dry-run output", err)
	}
	return "", nil
}

// ObjectSink uploads the content to Bucket/Key, creating the bucket if
// needed, then stats the object to confirm the stored size.
type ObjectSink struct {
	Store       filestore.Store
	Bucket      string
	Key         string
	ContentType string
}

func (s ObjectSink) Write(ctx context.Context, content string) (string, error) {
	if s.Bucket == "" || s.Key == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "upload target must be bucket/key")
	}
	if err := s.Store.EnsureBucket(ctx, s.Bucket); err != nil {
		return "", err
	}
	info, err := s.Store.PutObject(ctx, s.Bucket, s.Key, strings.NewReader(content), filestore.PutOptions{
		Size:        int64(len(content)),
		ContentType: s.ContentType,
		Metadata:    map[string]string{"generator": "knexgen"},
	})
	if err != nil {
		return "", err
	}

	stored, err := s.Store.StatObject(ctx, info.Bucket, info.Key)
	if err != nil {
		return "", err
	}
	if stored.Size != int64(len(content)) {
		return "", errs.Newf(errs.ErrKindQueryFailed,
			"uploaded %s/%s holds %d bytes, want %d", info.Bucket, info.Key, stored.Size, len(content))
	}
	return fmt.Sprintf("%s/%s (%d bytes, etag %s)", info.Bucket, info.Key, stored.Size, info.ETag), nil
}

// ParseObjectTarget splits "bucket/path/to/key" into bucket and key.
func ParseObjectTarget(target string) (bucket, key string, err error) {
	target = strings.TrimPrefix(target, "s3://")
	bucket, key, ok := strings.Cut(target, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errs.Newf(errs.ErrKindInvalidInput, "invalid upload target %q, want bucket/key", target)
	}
	return bucket, key, nil
}

// ContentType returns the MIME type for a generation target.
func ContentType(target string) string {
	if target == "go" {
		return "text/x-go; charset=utf-8"
	}
	return "application/typescript; charset=utf-8"
}
