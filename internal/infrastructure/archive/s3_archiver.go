// Package archive moves fully processed extract files out of the drop
// directory so a re-run of the same day cannot pick them up again.
package archive

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/telcobill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// S3Archiver uploads processed extract files to an S3-compatible bucket and
// removes the local copy. Works against AWS S3, MinIO, RustFS and the like.
type S3Archiver struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Archiver creates an S3Archiver from configuration
func NewS3Archiver(cfg *infraconfig.ArchiveConfig, logger *zap.Logger) (*S3Archiver, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("archive credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid archive endpoint: %w", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup.
func (a *S3Archiver) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads the file under a date-partitioned key and deletes the
// local copy once the upload succeeds.
func (a *S3Archiver) Archive(ctx context.Context, sourcePath string) error {
	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s for archive: %w", sourcePath, err)
	}
	defer f.Close()

	key := path.Join(time.Now().Format("2006/01/02"), filepath.Base(sourcePath))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("upload %s to archive: %w", sourcePath, err)
	}

	_ = f.Close()
	if err := os.Remove(sourcePath); err != nil {
		return fmt.Errorf("remove archived file %s: %w", sourcePath, err)
	}

	a.logger.Info("Extract archived",
		zap.String("file", filepath.Base(sourcePath)),
		zap.String("bucket", a.bucket),
		zap.String("key", key))
	return nil
}
