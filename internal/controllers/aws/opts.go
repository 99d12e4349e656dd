package aws

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithContext sets the context used while loading configuration and fetching secrets.
func WithContext(ctx context.Context) Option {
	return func(a *Controller) {
		a.ctx = ctx
	}
}

// WithConfig uses cfg instead of the default AWS configuration chain.
func WithConfig(cfg *aws.Config) Option {
	return func(a *Controller) {
		a.config = cfg
	}
}

// WithArchiveBucket sets the S3 bucket receiving archived payloads.
func WithArchiveBucket(bucket string) Option {
	return func(a *Controller) {
		a.bucket = bucket
	}
}

// WithS3Client injects the S3 client.
func WithS3Client(client S3API) Option {
	return func(a *Controller) {
		a.s3Client = client
	}
}

// WithSSMClient injects the SSM client.
func WithSSMClient(client SSMAPI) Option {
	return func(a *Controller) {
		a.ssmClient = client
	}
}

func withClock(now func() time.Time) Option {
	return func(a *Controller) {
		a.now = now
	}
}
