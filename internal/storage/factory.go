package storage

import (
	"context"
	"fmt"
	"strings"

	config "github.com/quietroom/quietroom-api/configs"
)

// NewStoreFromConfig builds the configured backend and returns it together
// with the id of the root container the folder topology hangs under.
func NewStoreFromConfig(ctx context.Context, cfg config.Config) (Store, string, error) {
	switch cfg.StorageBackend {
	case "drive", "":
		s, err := NewDriveStore(ctx, cfg.GoogleOAuthClientID, cfg.GoogleOAuthClientSecret, cfg.GoogleOAuthRefreshToken)
		if err != nil {
			return nil, "", err
		}
		if cfg.DriveRootFolderID == "" {
			return nil, "", fmt.Errorf("drive backend requires GOOGLE_DRIVE_ROOT_FOLDER_ID")
		}
		return s, cfg.DriveRootFolderID, nil
	case "s3":
		s, err := NewS3Store(ctx, cfg.S3.AccountID, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.BucketName, cfg.S3.Endpoint)
		if err != nil {
			return nil, "", err
		}
		root := cfg.S3.RootPrefix
		if root != "" && !strings.HasSuffix(root, "/") {
			root += "/"
		}
		return s, root, nil
	case "memory":
		return NewMemoryStore(), MemoryRootID, nil
	default:
		return nil, "", fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
