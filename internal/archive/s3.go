package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver stores raw gateway payloads for audit.
type Archiver interface {
	Archive(ctx context.Context, kind, reference string, body []byte) (string, error)
}

// Nop drops payloads. Used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, string, []byte) (string, error) { return "", nil }

type Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
	UsePathStyle bool
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	cfg    Config
	client putObjectAPI
	now    func() time.Time
}

func NewS3Archiver(cfg Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "webhooks"
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Archiver{cfg: cfg, client: s3.New(options), now: time.Now}, nil
}

// Archive writes body under <prefix>/<kind>/YYYY/MM/DD/<reference>-<uuid>.json
// and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, kind, reference string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("no payload to archive")
	}
	key := a.key(kind, reference)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, nil
}

func (a *S3Archiver) key(kind, reference string) string {
	now := a.now().UTC()
	name := uuid.NewString() + ".json"
	if reference != "" {
		name = sanitize(reference) + "-" + name
	}
	return path.Join(
		strings.Trim(a.cfg.Prefix, "/"),
		sanitize(kind),
		fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day()),
		name,
	)
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_").Replace(s)
}
