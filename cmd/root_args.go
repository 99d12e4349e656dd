package cmd

import (
	"time"

	"github.com/isometry/gh-webhook-relay/internal/config"
	"github.com/isometry/gh-webhook-relay/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.GitHub.WebhookSecret: {
		Name:        "github-webhook-secret",
		Description: "The secret used to validate the HMAC-SHA256 signature of incoming GitHub webhook payloads",
		Hidden:      true,
	},
	&config.Downstream.URL: {
		Name:        "downstream-url",
		Description: "The workflow engine webhook URL receiving the forwarded payloads",
		Env:         helpers.Ptr("KESTRA_WEBHOOK_URL"),
		Short:       helpers.Ptr("u"),
	},
	&config.Downstream.Username: {
		Name:        "downstream-username",
		Description: "The basic-auth username sent to the workflow engine",
	},
	&config.Downstream.Password: {
		Name:        "downstream-password",
		Description: "The basic-auth password sent to the workflow engine",
		Hidden:      true,
	},
	&config.Global.SSMKey: {
		Name:        "secrets-ssm-key",
		Description: "The SSM parameter holding a JSON document of secrets used to fill unset parameters",
	},
	&config.Archive.S3.BucketName: {
		Name:        "archive-s3-bucket",
		Description: "The S3 bucket receiving a copy of every forwarded payload",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Archive.S3.Enabled: {
		Name:        "archive-s3",
		Description: "Enable the S3 archive of forwarded payloads",
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default InfoLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Downstream.Timeout: {
		Name:        "downstream-timeout",
		Description: "The timeout of each forward to the workflow engine. Zero keeps the transport defaults",
	},
}
