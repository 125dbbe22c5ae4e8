package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"wallhub/internal/config"
	"wallhub/internal/content"
	"wallhub/internal/models"
)

// ObjectStore is the media sink: bytes go in, a public URL and a storage id
// (the object key) come out.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
	base   string
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
		base:   PublicBase(cfg.PublicBaseURL, endpoint, useSSL, cfg.Bucket),
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Put stores body under a dated key derived from id and ext.
func (s *ObjectStore) Put(ctx context.Context, id, ext, contentType string, body io.Reader, size int64) (models.MediaRef, error) {
	key := ObjectKey(time.Now().UTC(), id, ext)
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return models.MediaRef{}, fmt.Errorf("put object: %w", err)
	}
	return models.MediaRef{URL: s.base + "/" + key, StorageID: key}, nil
}

func (s *ObjectStore) Delete(ctx context.Context, storageID string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, storageID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", storageID, err)
	}
	return nil
}

// SignAttachment presigns a GET for storageID that overrides the response
// Content-Disposition. Signed requests are the only ones S3 applies
// response-* overrides to.
func (s *ObjectStore) SignAttachment(ctx context.Context, storageID, title string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", content.AttachmentDisposition(title))
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, storageID, s.cfg.DownloadLinkTTL, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", storageID, err)
	}
	return u.String(), nil
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	return err
}

func ObjectKey(now time.Time, id, ext string) string {
	return path.Join("wallpapers", now.Format("2006/01/02"), fmt.Sprintf("%s.%s", id, ext))
}

// PublicBase is the URL prefix media keys are appended to.
func PublicBase(override, endpoint string, useSSL bool, bucket string) string {
	if override != "" {
		return strings.TrimSuffix(override, "/")
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(endpoint, "/"), bucket)
}
