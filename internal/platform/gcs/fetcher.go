// Package gcs fetches uploaded files from Google Cloud Storage, with a
// local-filesystem path for development and tests.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// ErrFileNotFound is returned when the referenced file does not exist in
// the bucket or on disk. The processor treats it as a permanent failure.
var ErrFileNotFound = errors.New("uploaded file not found")

// Fetcher retrieves the raw bytes of an uploaded file by its stored
// location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// objectDownloader is the slice of *storage.Client the fetcher needs.
// Narrowing the dependency keeps tests free of a real GCS connection.
type objectDownloader interface {
	download(ctx context.Context, bucket, object string) ([]byte, error)
}

// Client fetches gs://bucket/object locations from Google Cloud Storage
// and anything else from the local filesystem.
type Client struct {
	downloader objectDownloader
	local      localFetcher
	logger     *slog.Logger
}

// NewClient builds a fetcher backed by the given storage client. The
// storage client may be nil when only local paths are in play.
func NewClient(storageClient *storage.Client, logger *slog.Logger) *Client {
	var downloader objectDownloader
	if storageClient != nil {
		downloader = &gcsDownloader{client: storageClient}
	}

	return &Client{
		downloader: downloader,
		logger:     logger.With("component", "file_fetcher"),
	}
}

// Fetch reads the file at location. Locations of the form
// gs://bucket/object go to Cloud Storage; all others are local paths.
func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, object, isRemote := splitObjectURL(location)
	if !isRemote {
		return c.local.fetch(ctx, location)
	}

	if c.downloader == nil {
		return nil, fmt.Errorf("no storage client configured for remote location %q", location)
	}

	c.logger.DebugContext(ctx, "fetching object from storage",
		"bucket", bucket,
		"object", object)

	data, err := c.downloader.download(ctx, bucket, object)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrFileNotFound, bucket, object)
		}
		return nil, fmt.Errorf("failed to fetch gs://%s/%s: %w", bucket, object, err)
	}

	return data, nil
}

// splitObjectURL parses gs://bucket/object into its parts. An empty
// bucket or object makes the location non-remote so the caller surfaces
// a useful local-read error instead of a malformed API call.
func splitObjectURL(location string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(location, "gs://")
	if !found {
		return "", "", false
	}

	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}

	return bucket, object, true
}

type gcsDownloader struct {
	client *storage.Client
}

func (d *gcsDownloader) download(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := d.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}

type localFetcher struct{}

func (localFetcher) fetch(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read local file %s: %w", path, err)
	}
	return data, nil
}
