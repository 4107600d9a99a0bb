package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures the object storage client. Bucket is required; the
// remaining fields default to public AWS S3.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool

	// PublicURL overrides the generated object URL base, for CDN fronting.
	PublicURL string
}

type Storage struct {
	client    *minio.Client
	bucket    string
	endpoint  string
	region    string
	useSSL    bool
	publicURL string
}

func New(opts Options) (*Storage, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "s3.amazonaws.com"
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	s := &Storage{
		client:    client,
		bucket:    opts.Bucket,
		endpoint:  opts.Endpoint,
		region:    opts.Region,
		useSSL:    opts.UseSSL,
		publicURL: strings.TrimSuffix(opts.PublicURL, "/"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	return s, nil
}

// UploadDigest stores the digest text under objectKey and returns its
// shareable URL. Assumes the bucket grants public read on digests/.
func (s *Storage) UploadDigest(ctx context.Context, objectKey, content string) (string, error) {
	reader := strings.NewReader(content)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", err
	}
	return s.ObjectURL(objectKey), nil
}

// ObjectURL builds the public URL for an object: the configured override,
// AWS virtual-hosted style for amazonaws endpoints, path style otherwise.
func (s *Storage) ObjectURL(objectKey string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + objectKey
	}
	if strings.HasSuffix(s.endpoint, "amazonaws.com") {
		if s.region == "" || s.region == "us-east-1" {
			return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, objectKey)
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey)
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectKey)
}

func (s *Storage) Bucket() string {
	return s.bucket
}
