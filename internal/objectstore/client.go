// Package objectstore wraps the landing-zone and archive-zone buckets.
//
// The pipeline only ever lists, fetches, copies and deletes whole objects;
// nothing is mutated in place. Archiving is copy-then-delete so a crash
// between the two leaves the object present in both zones rather than lost,
// and the idempotent loader makes the resulting re-run harmless.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/datakit/salespipe/internal/config"
)

// ErrNoPendingObjects is returned when the landing zone has no batches to
// process. Callers treat this as a no-op run, not a failure.
var ErrNoPendingObjects = errors.New("no pending objects in landing zone")

// Client provides access to the landing and archive buckets.
type Client struct {
	api     *minio.Client
	landing string
	archive string
}

// New builds a Client from store configuration.
func New(cfg config.StoreConfig) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}

	return &Client{
		api:     api,
		landing: cfg.LandingBucket,
		archive: cfg.ArchiveBucket,
	}, nil
}

// EnsureBuckets creates the landing and archive buckets when absent.
// Safe to run on every startup.
func (c *Client) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{c.landing, c.archive} {
		exists, err := c.api.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("checking bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// ListPending returns all object keys currently in the landing zone,
// sorted so runs pick batches up in a stable order.
func (c *Client) ListPending(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range c.api.ListObjects(ctx, c.landing, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing landing zone: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// NextPending returns the first pending object key, or ErrNoPendingObjects
// when the landing zone is empty.
func (c *Client) NextPending(ctx context.Context) (string, error) {
	keys, err := c.ListPending(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", ErrNoPendingObjects
	}
	return keys[0], nil
}

// FetchToFile downloads one landing-zone object to a local path.
func (c *Client) FetchToFile(ctx context.Context, key, path string) error {
	if err := c.api.FGetObject(ctx, c.landing, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("fetching %s: %w", key, err)
	}
	return nil
}

// Upload stores a new raw batch in the landing zone.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.api.PutObject(ctx, c.landing, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// Archive moves a processed object from the landing zone to the archive
// zone: copy first, then delete the source.
func (c *Client) Archive(ctx context.Context, key string) error {
	_, err := c.api.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.archive, Object: key},
		minio.CopySrcOptions{Bucket: c.landing, Object: key},
	)
	if err != nil {
		return fmt.Errorf("copying %s to archive: %w", key, err)
	}

	if err := c.api.RemoveObject(ctx, c.landing, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing %s from landing zone: %w", key, err)
	}

	return nil
}

// Ping verifies the object store is reachable and the landing bucket exists.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.api.BucketExists(ctx, c.landing)
	if err != nil {
		return fmt.Errorf("checking landing bucket: %w", err)
	}
	if !ok {
		return fmt.Errorf("landing bucket %q does not exist", c.landing)
	}
	return nil
}
