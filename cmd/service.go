package cmd

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/isometry/gh-webhook-relay/internal/config"
	awsctl "github.com/isometry/gh-webhook-relay/internal/controllers/aws"
	"github.com/isometry/gh-webhook-relay/internal/controllers/downstream"
	"github.com/isometry/gh-webhook-relay/internal/handler"
	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/isometry/gh-webhook-relay/internal/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// newAWSController is replaced in tests.
var newAWSController = awsctl.NewController

func cmdService() *cobra.Command {
	return &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Serve the webhook relay over HTTP",
		RunE:    runService,
	}
}

func runService(cmd *cobra.Command, _ []string) error {
	logger := logger.With("mode", "service")
	logger.Info("Spawning...")
	ctx := cmd.Context()

	var aws *awsctl.Controller
	if config.Global.SSMKey != "" || config.Archive.S3.Enabled {
		var err error
		aws, err = newAWSController(
			awsctl.WithContext(ctx),
			awsctl.WithArchiveBucket(config.Archive.S3.BucketName),
			awsctl.WithLogger(logger.With("component", "aws")))
		if err != nil {
			return err
		}
	}

	if config.Global.SSMKey != "" {
		logger.Debug("Resolving secrets from SSM...", "key", config.Global.SSMKey)
		raw, err := aws.GetSecret(config.Global.SSMKey, true)
		if err != nil {
			return err
		}
		if err = config.ApplySecrets(helpers.String(raw)); err != nil {
			return err
		}
	}

	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	fwdOpts := []downstream.Option{
		downstream.WithLogger(logger.With("component", "downstream")),
		downstream.WithTimeout(config.Downstream.Timeout),
		downstream.WithBasicAuth(config.Downstream.Username, config.Downstream.Password),
	}
	if config.Archive.S3.Enabled {
		fwdOpts = append(fwdOpts, downstream.WithArchiver(aws))
	}
	fwd, err := downstream.NewController(config.Downstream.URL, fwdOpts...)
	if err != nil {
		return err
	}

	logger.Debug("Creating webhook handler...")
	hdl, err := handler.NewHandler(
		handler.WithWebhookSecret(config.GitHub.WebhookSecret),
		handler.WithForwarder(fwd),
		handler.WithMaxBodySize(config.Service.MaxBodySize),
		handler.WithLogger(logger.With("component", "handler")))
	if err != nil {
		return err
	}

	logger.Debug("Creating runtime...")
	rtm := runtime.NewRuntime(hdl,
		runtime.WithPath(config.Service.Path),
		runtime.WithLogger(logger.With("component", "runtime")))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(config.Service.Addr, config.Service.Port)
	logger.Info("Serving...", "address", addr, "path", config.Service.Path, "timeout", config.Service.Timeout.String())
	return rtm.Serve(ctx, addr, config.Service.Timeout)
}
