package blob

import (
	"context"
	"errors"
	"fmt"

	"zoocore/internal/config"
	"zoocore/internal/infra/blob/fs"
	memorystore "zoocore/internal/infra/blob/memory"
	infraS3 "zoocore/internal/infra/blob/s3"
)

// ErrDisabled is returned by Open when no blob driver is configured.
var ErrDisabled = errors.New("blob storage disabled")

// Open constructs the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case "":
		return nil, ErrDisabled
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewFilesystem returns a store rooted at root.
func NewFilesystem(root string) (Store, error) {
	store, err := fs.New(root)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memorystore.New() }

// NewS3 returns an S3-backed store.
func NewS3(ctx context.Context, cfg config.S3Config) (Store, error) {
	store, err := infraS3.New(ctx, infraS3.Config{
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
		PathStyle:       cfg.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
