package storage

import (
	"context"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"shapefile-service/internal/config"
)

// NewMinioClient initializes the MinIO client for the raster archive bucket and
// ensures the bucket exists.
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	exists, errBucket := minioClient.BucketExists(ctx, cfg.MinioBucket)
	if errBucket != nil {
		return nil, errBucket
	}
	if !exists {
		err = minioClient.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: ""})
		if err != nil {
			return nil, err
		}
		log.Printf("Created bucket %s\n", cfg.MinioBucket)
	}
	return minioClient, nil
}

// RasterArchive persists processed raster outputs so they survive temp-dir cleanup.
type RasterArchive struct {
	Client *minio.Client
	Bucket string
}

// NewRasterArchive creates a RasterArchive over the given client and bucket.
func NewRasterArchive(client *minio.Client, bucket string) *RasterArchive {
	return &RasterArchive{Client: client, Bucket: bucket}
}

// ArchiveFile uploads one local file under the given object key.
func (a *RasterArchive) ArchiveFile(ctx context.Context, objectKey, localPath, contentType string) error {
	_, err := a.Client.FPutObject(ctx, a.Bucket, objectKey, localPath,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, "failed to archive %s", objectKey)
	}
	return nil
}
