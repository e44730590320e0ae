package commands

import (
	"context"
	"fmt"

	"github.com/nominaops/staffbulk/internal/logger"
	"github.com/nominaops/staffbulk/internal/storage"
)

// ProvisionStorageCmd creates the private chat-attachments bucket and
// applies its access policy. Declarative and safe to re-run; the bulk-edit
// workflow never touches the bucket at runtime.
type ProvisionStorageCmd struct {
	Bucket    string `help:"bucket name" default:"chat-attachments" env:"STAFFBULK_STORAGE_BUCKET"`
	Region    string `help:"bucket region" default:"us-east-1" env:"STAFFBULK_STORAGE_REGION"`
	Endpoint  string `help:"S3 endpoint URL override (for MinIO/LocalStack)" default:"" env:"STAFFBULK_STORAGE_ENDPOINT"`
	PathStyle bool   `help:"use path-style addressing (required by most local backends)" default:"false" env:"STAFFBULK_STORAGE_PATH_STYLE"`

	AccessKeyID     string `help:"static access key (falls back to the default credential chain)" default:"" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `help:"static secret key" default:"" env:"AWS_SECRET_ACCESS_KEY"`

	AuthenticatedRoleARN string `help:"principal granted read+write on the bucket" required:"" env:"STAFFBULK_STORAGE_ROLE_ARN"`
}

func (c *ProvisionStorageCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	cfg := storage.Config{
		Bucket:               c.Bucket,
		Region:               c.Region,
		Endpoint:             c.Endpoint,
		PathStyle:            c.PathStyle,
		AccessKeyID:          c.AccessKeyID,
		SecretAccessKey:      c.SecretAccessKey,
		AuthenticatedRoleARN: c.AuthenticatedRoleARN,
	}

	client, err := storage.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	if err := storage.Provision(ctx, client, cfg); err != nil {
		return fmt.Errorf("failed to provision storage: %w", err)
	}

	log.Info().Str("bucket", cfg.Bucket).Msg("Storage provisioning complete")
	return nil
}
