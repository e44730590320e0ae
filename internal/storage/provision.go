package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// DefaultBucket is the private container for chat attachments. It has no
// runtime interaction with the bulk-edit workflow; the messages table only
// records object locations.
const DefaultBucket = "chat-attachments"

// Config holds provisioning parameters for the attachments bucket.
type Config struct {
	// Bucket name. Defaults to DefaultBucket.
	Bucket string

	// Region for the bucket. Default us-east-1.
	Region string

	// Endpoint enables an S3-compatible backend (MinIO, LocalStack).
	Endpoint string

	// PathStyle forces path-style addressing (required by most local backends).
	PathStyle bool

	// Static credentials for local backends; the default chain is used
	// when empty.
	AccessKeyID     string
	SecretAccessKey string

	// AuthenticatedRoleARN is the principal granted read+write on the
	// bucket. Nothing else is granted access.
	AuthenticatedRoleARN string
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

// Validate checks that the provisioning configuration is valid.
func (c *Config) Validate() error {
	if c.AuthenticatedRoleARN == "" {
		return errors.New("authenticated role ARN is required")
	}
	return nil
}

// S3API is the subset of the S3 client used by provisioning.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutPublicAccessBlock(ctx context.Context, params *s3.PutPublicAccessBlockInput, optFns ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
}

// NewClient creates an S3 client from the provisioning config.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return client, nil
}

// Provision creates the private attachments bucket and applies its access
// policy: public access fully blocked, read+write limited to the
// authenticated principal. Safe to run repeatedly.
func Provision(ctx context.Context, client S3API, cfg Config) error {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := ensureBucket(ctx, client, cfg); err != nil {
		return err
	}

	if _, err := client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(cfg.Bucket),
		PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(true),
			IgnorePublicAcls:      aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(true),
		},
	}); err != nil {
		return fmt.Errorf("failed to block public access: %w", err)
	}

	policy, err := bucketPolicy(cfg.Bucket, cfg.AuthenticatedRoleARN)
	if err != nil {
		return fmt.Errorf("failed to build bucket policy: %w", err)
	}

	if _, err := client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(cfg.Bucket),
		Policy: aws.String(policy),
	}); err != nil {
		return fmt.Errorf("failed to apply bucket policy: %w", err)
	}

	log.Info().
		Str("bucket", cfg.Bucket).
		Str("principal", cfg.AuthenticatedRoleARN).
		Msg("Attachments bucket provisioned")

	return nil
}

func ensureBucket(ctx context.Context, client S3API, cfg Config) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
	if err == nil {
		log.Debug().Str("bucket", cfg.Bucket).Msg("Bucket already exists")
		return nil
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}
	// us-east-1 is the one region that rejects an explicit location constraint.
	if cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(cfg.Region),
		}
	}

	_, err = client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
	}

	log.Info().Str("bucket", cfg.Bucket).Msg("Created bucket")
	return nil
}

type policyStatement struct {
	Sid       string         `json:"Sid"`
	Effect    string         `json:"Effect"`
	Principal any            `json:"Principal"`
	Action    any            `json:"Action"`
	Resource  any            `json:"Resource"`
	Condition map[string]any `json:"Condition,omitempty"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// bucketPolicy grants object read+write to the authenticated principal and
// denies all non-TLS access. There is no public grant of any kind.
func bucketPolicy(bucket, roleARN string) (string, error) {
	bucketARN := fmt.Sprintf("arn:aws:s3:::%s", bucket)
	objectsARN := bucketARN + "/*"

	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:       "AllowAuthenticatedReadWrite",
				Effect:    "Allow",
				Principal: map[string]string{"AWS": roleARN},
				Action:    []string{"s3:GetObject", "s3:PutObject"},
				Resource:  objectsARN,
			},
			{
				Sid:       "DenyInsecureTransport",
				Effect:    "Deny",
				Principal: "*",
				Action:    "s3:*",
				Resource:  []string{bucketARN, objectsARN},
				Condition: map[string]any{
					"Bool": map[string]string{"aws:SecureTransport": "false"},
				},
			},
		},
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
