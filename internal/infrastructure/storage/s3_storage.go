package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	consts "upload-finalizer/pkg/constants"
	fe "upload-finalizer/pkg/errors"
	"upload-finalizer/pkg/file"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const checksumMetadataKey = "sha256"

// S3API is the subset of *s3.Client used by S3Storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Storage stores scanned files under <request_id>[/updated]/<filename> in one bucket.
type S3Storage struct {
	client     S3API
	bucketName string
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO or other S3-compatible endpoint
	AccessKey string
	SecretKey string
}

func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StorageWithClient(client, opts.Bucket), nil
}

func NewS3StorageWithClient(client S3API, bucketName string) *S3Storage {
	return &S3Storage{client: client, bucketName: bucketName}
}

// ObjectKey returns the object key of a file, mirroring the local layout.
func ObjectKey(requestID, filename string, isUpdate bool) string {
	if isUpdate {
		return path.Join(requestID, consts.UpdatedFileDirname, filename)
	}
	return path.Join(requestID, filename)
}

func (s *S3Storage) Relocate(ctx context.Context, src, requestID, filename string, isUpdate bool) (string, error) {
	key := ObjectKey(requestID, filename, isUpdate)

	sum, err := file.CalculateFileHash(src)
	if err != nil {
		return "", fe.ErrMove(err)
	}

	f, err := os.Open(src)
	if err != nil {
		return "", fe.ErrMove(err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucketName),
		Key:      aws.String(key),
		Body:     f,
		Metadata: map[string]string{checksumMetadataKey: sum, "request-id": requestID},
	})
	if err != nil {
		return "", fe.ErrMove(fmt.Errorf("put s3://%s/%s: %w", s.bucketName, key, err))
	}

	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return "", fe.ErrMove(fmt.Errorf("remove %s after upload: %w", src, err))
	}
	return fmt.Sprintf("s3://%s/%s", s.bucketName, key), nil
}

// Checksum reads the sha256 recorded in the object metadata at upload.
func (s *S3Storage) Checksum(ctx context.Context, requestID, filename string, isUpdate bool) (string, bool, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ObjectKey(requestID, filename, isUpdate)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return out.Metadata[checksumMetadataKey], true, nil
}
