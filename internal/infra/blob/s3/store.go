// Package s3 stores uploaded documents in an S3 or MinIO bucket through the
// AWS SDK v2. Object keys map one to one onto bucket keys.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"evictioncrm/internal/blob/core"
)

const defaultRegion = "us-east-1"

// Config holds bucket coordinates. Static keys are optional; without them the
// default AWS credential chain applies.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint, e.g. MinIO
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// HTTPClient overrides the SDK transport.
	HTTPClient *http.Client
}

// Store implements core.Store on a single bucket.
type Store struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint *url.URL
	pathMode bool
}

// New builds the SDK client for cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	var endpoint *url.URL
	if cfg.Endpoint != "" {
		endpoint, err = url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse s3 endpoint: %w", err)
		}
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region, endpoint: endpoint, pathMode: cfg.PathStyle}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Put uploads r unless key already exists. S3 has no conditional create on
// every backend, so existence is checked with HeadObject first. The body is
// buffered so the SDK gets a seekable payload of known length.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Object{}, err
	}
	exists, err := s.exists(ctx, key)
	if err != nil {
		return core.Object{}, err
	}
	if exists {
		return core.Object{}, fmt.Errorf("%w: %s", core.ErrExists, key)
	}
	input := &s3.PutObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key), Body: bytes.NewReader(data)}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = core.CloneMetadata(opts.Metadata)
	}
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return core.Object{}, fmt.Errorf("put %s: %w", key, err)
	}
	return core.Object{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}, nil
}

// Get streams the object body; the caller closes it.
func (s *Store) Get(ctx context.Context, key string) (core.Object, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isMissing(err) {
			return core.Object{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		return core.Object{}, nil, fmt.Errorf("get %s: %w", key, err)
	}
	obj := core.Object{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		Metadata:     out.Metadata,
		LastModified: aws.ToTime(out.LastModified),
	}
	return obj, out.Body, nil
}

// Delete removes key, reporting whether it existed beforehand.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	exists, err := s.exists(ctx, key)
	if err != nil || !exists {
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, nil
}

// URL is the unsigned object URL: path style under a custom endpoint, or
// the virtual-hosted AWS form.
func (s *Store) URL(key string) string {
	escaped := url.PathEscape(key)
	if s.endpoint != nil {
		base := strings.TrimSuffix(s.endpoint.String(), "/")
		if s.pathMode {
			return base + "/" + s.bucket + "/" + escaped
		}
		u := *s.endpoint
		u.Host = s.bucket + "." + u.Host
		return strings.TrimSuffix(u.String(), "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err == nil {
		return true, nil
	}
	if isMissing(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

func isMissing(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
