// Package s3io implements the blob store on S3: listing, metadata, URL
// resolution, multipart uploads with progress, deletes and presigned PUTs.
package s3io

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/ports"
)

// Presigner defines the interface for presigning S3 requests.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// API is the subset of the S3 client the store calls directly.
type API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploader transfers one object, splitting it into parts when large.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Store is the S3-backed blob store.
type Store struct {
	API        API
	Presign    Presigner
	Uploader   Uploader
	Bucket     string
	PublicBase string        // when set, URL returns PublicBase/key instead of a presigned GET
	TTL        time.Duration // presigned URL lifetime
	Log        *zap.Logger
}

var (
	_ ports.BlobStore = (*Store)(nil)
	_ ports.Stager    = (*Store)(nil)
)

// partSize is the multipart chunk size; a failed part is retried on its own
// instead of restarting the whole object.
const partSize = 5 * 1024 * 1024

// NewStore wires a Store around one S3 client.
func NewStore(c *s3.Client, bucket, publicBase string, ttl time.Duration, log *zap.Logger) *Store {
	return &Store{
		API:     c,
		Presign: s3.NewPresignClient(c),
		Uploader: manager.NewUploader(c, func(u *manager.Uploader) {
			u.PartSize = partSize
			u.Concurrency = 3
		}),
		Bucket:     bucket,
		PublicBase: strings.TrimRight(publicBase, "/"),
		TTL:        ttl,
		Log:        log.Named("s3io"),
	}
}

// List returns every object key under prefix, skipping folder markers.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.API, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(strings.TrimSuffix(prefix, "/") + "/"),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			k := aws.ToString(obj.Key)
			if k == "" || strings.HasSuffix(k, "/") {
				continue
			}
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Stat fetches object metadata with HeadObject.
func (s *Store) Stat(ctx context.Context, key string) (ports.BlobMeta, error) {
	ho, err := s.API.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ports.BlobMeta{}, fmt.Errorf("head %s: %w", key, ports.ErrNotFound)
		}
		return ports.BlobMeta{}, fmt.Errorf("head %s: %w", key, err)
	}

	m := ports.BlobMeta{
		Size:        aws.ToInt64(ho.ContentLength),
		ContentType: strings.ToLower(aws.ToString(ho.ContentType)),
		Created:     aws.ToTime(ho.LastModified),
	}
	// Be tolerant: log if unexpected but don't fail the caller
	if m.ContentType != "" && !strings.HasPrefix(m.ContentType, "image/") {
		s.Log.Warn("unexpected content type", zap.String("key", key), zap.String("content_type", m.ContentType))
	}
	return m, nil
}

// URL resolves a fetchable location for key.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if s.PublicBase != "" {
		return s.PublicBase + "/" + escapeKey(key), nil
	}
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.TTL))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// Upload streams body to key through the multipart uploader. Progress counts
// bytes the uploader reads into its part buffers, one part (5 MiB) ahead of
// what has been sent.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onBytes func(int64)) error {
	if onBytes != nil {
		body = &countingReader{r: body, fn: onBytes}
	}
	_, err := s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.Log.Error("upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("upload %s: %w", key, err)
	}
	s.Log.Info("object uploaded", zap.String("key", key), zap.Int64("size", size))
	return nil
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.API.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Stage presigns a PUT of key for a browser upload.
func (s *Store) Stage(ctx context.Context, key, contentType string) (ports.Staged, error) {
	url, ttl, err := PresignPut(ctx, s.Presign, s.Bucket, key, contentType, nil, s.TTL)
	if err != nil {
		return ports.Staged{}, fmt.Errorf("presign put %s: %w", key, err)
	}
	return ports.Staged{Key: key, URL: url, Headers: UploadHeaders(contentType, nil), ExpiresIn: ttl}, nil
}

// PresignPut generates a presigned URL for uploading an object to S3 with the specified parameters.
func PresignPut(ctx context.Context, p Presigner, bucket, key, contentType string, meta map[string]string, ttl time.Duration) (string, time.Duration, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	}

	req, err := p.PresignPutObject(ctx, input, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", 0, err
	}
	return req.URL, ttl, nil
}

// UploadHeaders builds the headers the client must send on the presigned PUT.
func UploadHeaders(contentType string, meta map[string]string) map[string]string {
	h := map[string]string{"Content-Type": contentType}
	for k, v := range meta {
		h["x-amz-meta-"+k] = v
	}
	return h
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// countingReader reports the running total of bytes read through it.
type countingReader struct {
	r     io.Reader
	fn    func(int64)
	total atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.fn(c.total.Add(int64(n)))
	}
	return n, err
}
