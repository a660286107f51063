package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"wordy/wordy/config"
	"wordy/wordy/utils/logging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOStore keeps content as objects in one bucket, keyed by the normalized
// path.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(ctx context.Context, cfg config.Config) (*MinIOStore, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOSecure,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		logging.AppLogger.Info("Created content bucket", zap.String("bucket", bucket))
	}
	return &MinIOStore{client: client, bucket: bucket}, nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

func contentType(key string) string {
	if strings.HasSuffix(key, ".json") {
		return "application/json"
	}
	return "application/octet-stream"
}

// streamPartSize is the multipart chunk used when the length is unknown.
const streamPartSize = 16 << 20

// objectSize is the remaining length of in-memory readers and -1 for
// anything else.
func objectSize(r io.Reader) int64 {
	if l, ok := r.(interface{ Len() int }); ok {
		return int64(l.Len())
	}
	return -1
}

func (m *MinIOStore) Save(ctx context.Context, p string, r io.Reader) error {
	key, err := Normalize(p)
	if err != nil {
		return err
	}
	size := objectSize(r)
	opts := minio.PutObjectOptions{ContentType: contentType(key)}
	if size < 0 {
		// minio-go sizes its part buffer for a 5 TiB object otherwise
		opts.PartSize = streamPartSize
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, r, size, opts)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (m *MinIOStore) Read(ctx context.Context, p string) ([]byte, error) {
	rc, _, err := m.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (m *MinIOStore) Open(ctx context.Context, p string) (io.ReadCloser, ObjectInfo, error) {
	key, err := Normalize(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, ObjectInfo{Name: path.Base(key), Size: st.Size, ModTime: st.LastModified}, nil
}

func (m *MinIOStore) Exists(ctx context.Context, p string) (bool, error) {
	key, err := Normalize(p)
	if err != nil {
		return false, err
	}
	_, err = m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete reports ErrNotFound for a missing key, matching LocalStore; S3
// itself treats removing a missing key as success.
func (m *MinIOStore) Delete(ctx context.Context, p string) error {
	key, err := Normalize(p)
	if err != nil {
		return err
	}
	exists, err := m.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *MinIOStore) List(ctx context.Context, dir string) ([]ObjectInfo, error) {
	prefix, err := Normalize(dir)
	if err != nil {
		return nil, err
	}
	out := []ObjectInfo{}
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix + "/"}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, ObjectInfo{Name: path.Base(obj.Key), Size: obj.Size, ModTime: obj.LastModified})
	}
	return out, nil
}

func (m *MinIOStore) Walk(ctx context.Context, dir string, fn func(p string, info ObjectInfo) error) error {
	prefix, err := Normalize(dir)
	if err != nil {
		return err
	}
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix + "/", Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := fn(obj.Key, ObjectInfo{Name: path.Base(obj.Key), Size: obj.Size, ModTime: obj.LastModified}); err != nil {
			return err
		}
	}
	return nil
}

func (m *MinIOStore) DeleteDir(ctx context.Context, dir string) error {
	prefix, err := Normalize(dir)
	if err != nil {
		return err
	}
	objects := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix + "/", Recursive: true})
	for rErr := range m.client.RemoveObjects(ctx, m.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			return fmt.Errorf("remove %s: %w", rErr.ObjectName, rErr.Err)
		}
	}
	return nil
}
