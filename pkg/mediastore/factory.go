package mediastore

import (
	"context"
	"fmt"

	"saferoute/config"
)

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg *config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.Root, cfg.URL)
	case "cloudinary":
		return NewCloudinaryStore(CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		})
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	case "gcs":
		return NewGCSStore(ctx, GCSConfig{
			Bucket:        cfg.GCSBucket,
			Prefix:        cfg.GCSPrefix,
			PublicBaseURL: cfg.GCSPublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Backend)
	}
}
