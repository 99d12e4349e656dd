// Package aws provides the Controller struct that wraps AWS services: SSM for secret resolution and S3 for the payload archive.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/isometry/gh-webhook-relay/internal/models"
	"github.com/pkg/errors"
)

// S3API is the subset of the S3 client used by the Controller.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SSMAPI is the subset of the SSM client used by the Controller.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Controller wraps the S3 and SSM clients with context and logging support.
type Controller struct {
	ctx    context.Context
	logger *slog.Logger

	config    *aws.Config
	s3Client  S3API
	ssmClient SSMAPI
	bucket    string
	now       func() time.Time
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and default configurations if unspecified.
// The default AWS configuration is only loaded when a client was not injected.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.now == nil {
		_inst.now = time.Now
	}
	if _inst.s3Client != nil && _inst.ssmClient != nil {
		return _inst, nil
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(_inst.ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		_inst.config = &cfg
	}

	if _inst.s3Client == nil {
		_inst.s3Client = s3.NewFromConfig(*_inst.config)
	}
	if _inst.ssmClient == nil {
		_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	}
	return _inst, nil
}

// GetSecret retrieves a parameter value from SSM Parameter Store, decrypting it when encrypted is true.
func (a *Controller) GetSecret(key string, encrypted bool) (*string, error) {
	a.logger.With("key", key).Debug("fetching SSM secret...")
	ssmResponse, err := a.ssmClient.GetParameter(a.ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(encrypted),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load SSM parameters")
	}
	if ssmResponse.Parameter == nil || ssmResponse.Parameter.Value == nil {
		return nil, errors.Errorf("SSM parameter %s has no value", key)
	}
	return ssmResponse.Parameter.Value, nil
}

// Archive uploads a delivery payload to the configured bucket under "<timestamp>.<event>.<delivery>".
// It is a no-op when no bucket is configured.
func (a *Controller) Archive(ctx context.Context, delivery models.Delivery) error {
	if a.bucket == "" {
		return nil
	}
	key := fmt.Sprintf("%s.%s.%s", a.now().UTC().Format(time.RFC3339Nano), delivery.Event, delivery.ID)
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(delivery.Body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "failed to put object to S3")
	}
	a.logger.Debug("archived payload", slog.String("bucket", a.bucket), slog.String("key", key))
	return nil
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
