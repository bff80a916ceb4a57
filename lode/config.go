// Package lode persists normalized word sequences in a Lode dataset.
//
// Each normalization becomes one JSONL record in a Hive layout partitioned
// by device, kind and day. Storage runs on the local filesystem or on S3
// (and S3-compatible providers).
package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Dataset is the Lode dataset queried by History and LatestWords.
type Dataset = lode.Dataset

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "resdump"

// Partition keys, in layout order.
const (
	PartitionDevice = "device"
	PartitionKind   = "kind"
	PartitionDay    = "day"
)

// DeriveDay computes the partition day for a write time (YYYY-MM-DD UTC).
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Config holds WordStore configuration.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// Device is the default device partition for records written without one.
	Device string
}

func (c Config) withDefaults() Config {
	if c.Dataset == "" {
		c.Dataset = DefaultDataset
	}
	if c.Device == "" {
		c.Device = "unknown"
	}
	return c
}

// S3Config holds configuration for the S3 storage backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket.
	Prefix string
	// Region is the AWS region; empty uses the default chain.
	Region string
	// Endpoint is a custom endpoint URL for S3-compatible providers
	// such as MinIO or R2.
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path splits "bucket/prefix" into its parts.
func ParseS3Path(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, prefix
}

// NewS3Factory builds a Lode store factory backed by S3.
// Credentials come from the AWS SDK default chain.
func NewS3Factory(ctx context.Context, s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapInitError(fmt.Errorf("failed to load AWS config: %w", err), s3cfg.Bucket)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}, nil
}

// OpenDataset opens the word dataset on factory. Reads and writes share
// the same layout and codec.
func OpenDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(PartitionDevice, PartitionKind, PartitionDay),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}

// OpenDatasetFS opens the word dataset under rootPath.
func OpenDatasetFS(dataset, rootPath string) (lode.Dataset, error) {
	return OpenDataset(dataset, lode.NewFSFactory(rootPath))
}
