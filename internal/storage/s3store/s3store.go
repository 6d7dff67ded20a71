// Package s3store keeps files in an S3 compatible bucket and hands out presigned download links.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/storage"
)

const PresignExpiry = 15 * time.Minute

// API is the part of the S3 client the store uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Options struct {
	Region       string
	Bucket       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type S3Store struct {
	bucket  string
	api     API
	presign Presigner
}

var (
	loadConfig            = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// New builds a client from static credentials when they are given, or from the default credential chain
// otherwise. A base endpoint points the client at MinIO or another S3 compatible server.
func New(ctx context.Context, opts Options) (*S3Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(opts.Bucket, client, s3.NewPresignClient(client)), nil
}

func NewWithClient(bucket string, api API, presign Presigner) *S3Store {
	return &S3Store{bucket: bucket, api: api, presign: presign}
}

func isCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

func notFound(err error) bool {
	var noKey *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &nf) || isCode(err, "NoSuchKey", "NotFound")
}

func (s *S3Store) Create(ctx context.Context, content io.Reader, path string) error {
	// The body is buffered so that it can be signed over plain http endpoints.
	body, err := io.ReadAll(content)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read upload")
		return storage.ErrInternal
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if isCode(err, "PreconditionFailed", "ConditionalRequestConflict") {
			return storage.ErrAlreadyExists
		}
		log.Error().Err(err).Str("path", path).Msg("s3 upload failed")
		return storage.ErrCreate
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, path string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if notFound(err) {
			return nil, storage.ErrNotExist
		}
		log.Error().Err(err).Str("path", path).Msg("s3 download failed")
		return nil, storage.ErrInternal
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read s3 object")
		return nil, storage.ErrInternal
	}
	return content, nil
}

// Delete reports ErrNotExist for missing objects, which S3 itself does not.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if notFound(err) {
			return storage.ErrNotExist
		}
		log.Error().Err(err).Str("path", path).Msg("s3 head failed")
		return storage.ErrInternal
	}

	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("s3 delete failed")
		return storage.ErrInternal
	}
	return nil
}

func (s *S3Store) URL(ctx context.Context, path string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to presign download")
		return "", storage.ErrInternal
	}
	return req.URL, nil
}
