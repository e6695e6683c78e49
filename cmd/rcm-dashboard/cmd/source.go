package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	s3storage "github.com/careoptions/rcm-dashboard/internal/infrastructure/storage/s3"
	"github.com/careoptions/rcm-dashboard/pkg/config"
)

// openAssetSource returns the configured asset tree.
func openAssetSource(ctx context.Context, cfg *config.Config) (fs.FS, error) {
	switch cfg.Assets.Source {
	case config.AssetSourceS3:
		bucket, err := s3storage.NewBucketFS(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			RequestTimeout:  cfg.S3.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open s3 asset source: %w", err)
		}
		return bucket, nil

	case config.AssetSourceDisk:
		info, err := os.Stat(cfg.Assets.Root)
		if err != nil {
			return nil, fmt.Errorf("asset root %q: %w", cfg.Assets.Root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("asset root %q is not a directory", cfg.Assets.Root)
		}
		return os.DirFS(cfg.Assets.Root), nil

	default:
		return nil, fmt.Errorf("unsupported asset source: %q", cfg.Assets.Source)
	}
}
