package s3

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
)

// Client presigns proof attachment URLs against an S3-compatible bucket.
type Client struct {
	presig *s3.PresignClient
	bucket string
	ttl    time.Duration
}

// New creates a client. It returns nil, nil when no bucket is configured so
// callers can treat attachment storage as optional.
func New(cfg config.S3Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	awsCfg, err := awscfg.LoadDefaultConfig(context.Background(),
		awscfg.WithRegion(cfg.Region),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	cli := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := time.Duration(cfg.PresignTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{
		presig: s3.NewPresignClient(cli),
		bucket: cfg.Bucket,
		ttl:    ttl,
	}, nil
}

// AttachmentKey builds the object key for a new attachment owned by userID.
// Keys follow proofs/{user_id}/{uuid}{ext}.
func AttachmentKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("proofs/%s/%s%s", userID, uuid.New(), ext)
}

// IsAttachmentKey reports whether s looks like a key produced by AttachmentKey
// rather than an external URL.
func IsAttachmentKey(s string) bool {
	return strings.HasPrefix(s, "proofs/") && !strings.Contains(s, "..")
}

// PresignUpload generates a presigned PUT URL for key.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := c.presig.PresignPutObject(ctx, in, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign put %q: %w", key, err)
	}
	return req.URL, nil
}

// PresignDownload generates a presigned GET URL valid for the configured TTL.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := c.presig.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign %q: %w", key, err)
	}
	return req.URL, nil
}

// TTL is how long presigned URLs stay valid.
func (c *Client) TTL() time.Duration {
	return c.ttl
}
