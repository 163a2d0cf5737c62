package publisher

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const StageName = "artifact_publisher"

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	prefix          string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// objectStore is the subset of the minio client used to publish.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioPublisher uploads the files of a run to
// <bucket>/<prefix>/<run timestamp>/<path relative to the run directory>.
type MinioPublisher struct {
	cfg    *minioConfig
	client objectStore
	layout artifact.Layout
	log    *zap.SugaredLogger
}

func NewMinioPublisher(layout artifact.Layout, opts ...MinioOpts) (*MinioPublisher, error) {
	cfg := newConfig(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return newPublisher(layout, minioClient, cfg), nil
}

func newPublisher(layout artifact.Layout, client objectStore, cfg *minioConfig) *MinioPublisher {
	return &MinioPublisher{
		cfg:    cfg,
		client: client,
		layout: layout,
		log:    zap.S().Named(StageName),
	}
}

func (p *MinioPublisher) Name() string {
	return StageName
}

// Run publishes every file of the run directory. The artifacts are only used
// for logging since the run directory already holds them.
func (p *MinioPublisher) Run(ctx context.Context, in artifact.Ingestion, v artifact.Validation) error {
	if err := p.ensureBucket(ctx); err != nil {
		return err
	}

	uploaded := 0
	err := filepath.WalkDir(p.layout.Root(), func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(p.layout.Root(), filePath)
		if err != nil {
			return err
		}
		key := ObjectKey(p.cfg.prefix, p.layout.Timestamp(), rel)

		info, err := p.client.FPutObject(ctx, p.cfg.bucket, key, filePath, minio.PutObjectOptions{ContentType: contentType(filePath)})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", filePath, err)
		}
		p.log.Debugw("artifact uploaded", "bucket", info.Bucket, "key", info.Key, "size", info.Size)
		uploaded++
		return nil
	})
	if err != nil {
		return err
	}

	p.log.Infow("artifacts published", "bucket", p.cfg.bucket, "objects", uploaded, "train", in.TrainedFilePath, "drift_report", v.DriftReportPath)
	return nil
}

func (p *MinioPublisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", p.cfg.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", p.cfg.bucket, err)
	}
	p.log.Infow("bucket created", "bucket", p.cfg.bucket)
	return nil
}

// ObjectKey builds the key of a run file, always with forward slashes.
func ObjectKey(prefix, timestamp, rel string) string {
	return path.Join(prefix, timestamp, filepath.ToSlash(rel))
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

// WithPrefix sets the first segment of every key, usually the pipeline name.
func WithPrefix(prefix string) MinioOpts {
	return func(c *minioConfig) {
		c.prefix = prefix
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
