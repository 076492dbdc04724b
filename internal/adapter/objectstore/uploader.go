package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/hnx-camera-etl/internal/config"
	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

const keyPrefix = "enriched"

type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader stores enriched artifacts in an S3-compatible bucket.
// It implements pipeline.Sink.
type Uploader struct {
	client objectAPI
	bucket string
	logger *slog.Logger
}

// NewUploader connects to the configured MinIO endpoint.
func NewUploader(cfg *config.Config, logger *slog.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.MinioBucket, logger: logger}, nil
}

func (u *Uploader) Name() string { return "minio" }

// EnsureBucket creates the bucket when it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	u.logger.Info("created artifact bucket", "bucket", u.bucket)
	return nil
}

// ObjectKey is the key an artifact for src is stored under.
func ObjectKey(src domain.Source) string {
	return path.Join(keyPrefix, csvfile.ArtifactName(src))
}

// WriteArtifacts uploads the CSV artifact for src, replacing any previous one.
func (u *Uploader) WriteArtifacts(ctx context.Context, src domain.Source, records []domain.CameraRecord) error {
	data, err := csvfile.EncodeArtifact(records)
	if err != nil {
		return fmt.Errorf("encode %s artifact: %w", src, err)
	}

	key := ObjectKey(src)
	info, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	u.logger.Debug("uploaded artifact", "bucket", u.bucket, "key", key, "size", info.Size)
	return nil
}
