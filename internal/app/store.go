package app

import (
	"github.com/spf13/afero"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/errors"
	"github.com/aiton-rag/uploadui/pkg/upload"
)

// openStore builds the staging backend named by the configuration.
func openStore(cfg *config.Config) (upload.Store, error) {
	maxSize := cfg.Upload.MaxFileSize
	switch cfg.Staging.Backend {
	case config.BackendMemory:
		s, err := upload.NewDiskStoreFs(afero.NewMemMapFs(), "/staging", maxSize)
		if err != nil {
			return nil, errors.New("E141").Wrap(err).WithDetail(err.Error())
		}
		return s, nil

	case config.BackendS3:
		s3cfg := cfg.Staging.S3
		client := upload.NewS3Client(upload.S3Options{
			Bucket:          s3cfg.Bucket,
			Prefix:          s3cfg.Prefix,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			UsePathStyle:    s3cfg.UsePathStyle,
		})
		return upload.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix, maxSize), nil

	default:
		s, err := upload.NewDiskStore(cfg.Staging.Dir, maxSize)
		if err != nil {
			return nil, errors.New("E141").
				Wrap(err).
				WithDetailf("cannot use staging directory %s: %v", cfg.Staging.Dir, err).
				WithSuggestion("Check that the directory is writable or set STAGING_DIR")
		}
		return s, nil
	}
}
