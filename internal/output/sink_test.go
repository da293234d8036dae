package output

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/knexgen/internal/errs"
	"github.com/koustreak/knexgen/internal/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types", "nested", "db.ts")

	loc, err := FileSink{Path: path}.Write(context.Background(), "export {};\n")
	require.NoError(t, err)
	assert.Equal(t, path, loc)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export {};\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestFileSink_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.ts")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer"), 0o644))

	_, err := FileSink{Path: path}.Write(context.Background(), "new")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFileSink_EmptyPath(t *testing.T) {
	_, err := FileSink{}.Write(context.Background(), "x")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDryRun_WritesNoFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	loc, err := DryRun{W: &buf}.Write(context.Background(), "content")
	require.NoError(t, err)
	assert.Empty(t, loc)
	assert.Equal(t, "content", buf.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeStore struct {
	buckets  map[string]map[string][]byte
	putOpts  filestore.PutOptions
	truncate bool
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }

func (s *fakeStore) EnsureBucket(_ context.Context, bucket string) error {
	if s.buckets == nil {
		s.buckets = map[string]map[string][]byte{}
	}
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = map[string][]byte{}
	}
	return nil
}

func (s *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if s.truncate {
		data = data[:len(data)/2]
	}
	objects[key] = data
	s.putOpts = opts
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data)), ETag: "abc", LastModified: time.Unix(0, 0)}, nil
}

func (s *fakeStore) StatObject(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	data, ok := s.buckets[bucket][key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such key")
	}
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func TestObjectSink(t *testing.T) {
	store := &fakeStore{}
	sink := ObjectSink{Store: store, Bucket: "types", Key: "app/db.ts", ContentType: ContentType("typescript")}

	loc, err := sink.Write(context.Background(), "export {};\n")
	require.NoError(t, err)
	assert.Equal(t, "types/app/db.ts (11 bytes, etag abc)", loc)

	info, err := store.StatObject(context.Background(), "types", "app/db.ts")
	require.NoError(t, err)
	assert.Equal(t, int64(len("export {};\n")), info.Size)
	assert.Equal(t, int64(len("export {};\n")), store.putOpts.Size)
	assert.Equal(t, "application/typescript; charset=utf-8", store.putOpts.ContentType)
}

func TestObjectSink_SizeMismatch(t *testing.T) {
	store := &fakeStore{truncate: true}
	_, err := ObjectSink{Store: store, Bucket: "types", Key: "db.ts"}.Write(context.Background(), "export {};\n")
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestObjectSink_MissingTarget(t *testing.T) {
	_, err := ObjectSink{Store: &fakeStore{}, Bucket: "types"}.Write(context.Background(), "x")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestParseObjectTarget(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		key        string
		wantFailed bool
	}{
		{in: "types/db.ts", bucket: "types", key: "db.ts"},
		{in: "s3://types/app/db.ts", bucket: "types", key: "app/db.ts"},
		{in: "types", wantFailed: true},
		{in: "/db.ts", wantFailed: true},
		{in: "types/", wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseObjectTarget(tt.in)
			if tt.wantFailed {
				assert.True(t, errs.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}
