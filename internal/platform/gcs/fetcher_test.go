package gcs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubDownloader struct {
	data []byte
	err  error

	gotBucket string
	gotObject string
}

func (s *stubDownloader) download(_ context.Context, bucket, object string) ([]byte, error) {
	s.gotBucket = bucket
	s.gotObject = object
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func TestSplitObjectURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		location string
		bucket   string
		object   string
		remote   bool
	}{
		{name: "remote object", location: "gs://uploads/essays/42.txt", bucket: "uploads", object: "essays/42.txt", remote: true},
		{name: "nested object path", location: "gs://b/a/b/c.pdf", bucket: "b", object: "a/b/c.pdf", remote: true},
		{name: "local absolute path", location: "/tmp/essay.txt", remote: false},
		{name: "local relative path", location: "essay.txt", remote: false},
		{name: "missing object", location: "gs://uploads", remote: false},
		{name: "empty bucket", location: "gs:///essay.txt", remote: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			bucket, object, remote := splitObjectURL(tc.location)
			assert.Equal(t, tc.remote, remote)
			if tc.remote {
				assert.Equal(t, tc.bucket, bucket)
				assert.Equal(t, tc.object, object)
			}
		})
	}
}

func TestFetch_LocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "essay.txt")
	require.NoError(t, os.WriteFile(path, []byte("the essay text"), 0o600))

	client := NewClient(nil, testLogger())

	data, err := client.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("the essay text"), data)
}

func TestFetch_LocalFileMissing(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, testLogger())

	_, err := client.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFetch_RemoteObject(t *testing.T) {
	t.Parallel()

	downloader := &stubDownloader{data: []byte("remote content")}
	client := &Client{downloader: downloader, logger: testLogger()}

	data, err := client.Fetch(context.Background(), "gs://uploads/essays/42.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote content"), data)
	assert.Equal(t, "uploads", downloader.gotBucket)
	assert.Equal(t, "essays/42.txt", downloader.gotObject)
}

func TestFetch_RemoteObjectMissing(t *testing.T) {
	t.Parallel()

	downloader := &stubDownloader{err: storage.ErrObjectNotExist}
	client := &Client{downloader: downloader, logger: testLogger()}

	_, err := client.Fetch(context.Background(), "gs://uploads/gone.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFetch_RemoteTransportError(t *testing.T) {
	t.Parallel()

	downloader := &stubDownloader{err: errors.New("connection reset")}
	client := &Client{downloader: downloader, logger: testLogger()}

	_, err := client.Fetch(context.Background(), "gs://uploads/essay.txt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestFetch_RemoteWithoutStorageClient(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, testLogger())

	_, err := client.Fetch(context.Background(), "gs://uploads/essay.txt")
	assert.Error(t, err)
}
