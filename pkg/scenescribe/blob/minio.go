package blob

import (
	"context"
	"fmt"
	"io"
	"iter"
	"mime"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinIO stores objects in a single S3-compatible bucket.
type MinIO struct {
	client *miniogo.Client
	bucket string
}

func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIO{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return miniogo.ToErrorResponse(err).Code == "NoSuchKey"
}

func (m *MinIO) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, miniogo.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

func (m *MinIO) ReadText(ctx context.Context, key string) (string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return "", models.NewNotFoundError(fmt.Sprintf("blob %s", key), err)
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), nil
}

func (m *MinIO) SaveFile(ctx context.Context, path, key string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, key, path, miniogo.PutObjectOptions{
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (m *MinIO) DownloadFile(ctx context.Context, key, path string) error {
	if err := m.client.FGetObject(ctx, m.bucket, key, path, miniogo.GetObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return models.NewNotFoundError(fmt.Sprintf("blob %s", key), err)
		}
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

func (m *MinIO) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, miniogo.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (m *MinIO) ListFiles(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		// Cancelling on return stops the listing goroutine when the caller breaks early.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		for obj := range m.client.ListObjects(ctx, m.bucket, miniogo.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				yield("", fmt.Errorf("list %s: %w", prefix, obj.Err))
				return
			}
			if !yield(obj.Key, nil) {
				return
			}
		}
	}
}
