package objstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"shelfsync/internal/config"
	"shelfsync/internal/fault"
)

// MinioBucket implements Bucket on top of minio-go.
type MinioBucket struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the configured endpoint. It does not contact the
// server; call Ping to verify reachability.
func NewMinio(cfg config.ObjectStore) (*MinioBucket, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fault.Wrap(fault.ErrConfiguration, "objstore", "connect", "object_store.endpoint and object_store.bucket must be set", nil)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "objstore", "connect", cfg.Endpoint, err)
	}
	return &MinioBucket{client: client, bucket: cfg.Bucket}, nil
}

func (b *MinioBucket) Name() string { return b.bucket }

func (b *MinioBucket) Ping(ctx context.Context) error {
	ok, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return mapError("ping", b.bucket, err)
	}
	if !ok {
		return fault.Wrap(fault.ErrNotFound, "objstore", "ping", "bucket "+b.bucket, nil)
	}
	return nil
}

// List follows the server's continuation tokens with a single sequential
// cursor per call.
func (b *MinioBucket) List(ctx context.Context, prefix string, recursive bool) ([]Object, error) {
	var out []Object
	for info := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: recursive}) {
		if info.Err != nil {
			return nil, mapError("list", prefix, info.Err)
		}
		out = append(out, fromInfo(info))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *MinioBucket) Stat(ctx context.Context, key string) (Object, error) {
	info, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, mapError("stat", key, err)
	}
	return fromInfo(info), nil
}

func (b *MinioBucket) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := b.Stat(ctx, key); err != nil {
		if fault.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *MinioBucket) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := b.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: b.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: b.bucket, Object: srcKey},
	)
	if err != nil {
		return mapError("copy", srcKey+" -> "+dstKey, err)
	}
	return nil
}

func (b *MinioBucket) Remove(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapError("remove", key, err)
	}
	return nil
}

func (b *MinioBucket) Upload(ctx context.Context, key, localPath string) error {
	if _, err := b.client.FPutObject(ctx, b.bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return mapError("upload", key, err)
	}
	return nil
}

func (b *MinioBucket) Download(ctx context.Context, key, localPath string) error {
	if err := b.client.FGetObject(ctx, b.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return mapError("download", key, err)
	}
	return nil
}

func fromInfo(info minio.ObjectInfo) Object {
	isPrefix := info.Size == 0 && len(info.Key) > 0 && info.Key[len(info.Key)-1] == '/'
	return Object{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		IsPrefix:     isPrefix,
	}
}

// mapError separates missing objects from transport and credential failures.
func mapError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fault.Wrap(fault.ErrNotFound, "objstore", op, target, err)
	case resp.StatusCode == http.StatusForbidden || resp.Code == "AccessDenied" || resp.Code == "InvalidAccessKeyId":
		return fault.Wrap(fault.ErrConfiguration, "objstore", op, fmt.Sprintf("%s (access denied)", target), err)
	default:
		return fault.Wrap(fault.ErrTransient, "objstore", op, target, err)
	}
}
