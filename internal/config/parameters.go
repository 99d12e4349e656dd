// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

// DefaultMaxBodySize is the largest accepted webhook body (25 MiB).
const DefaultMaxBodySize int64 = 25 << 20

// DefaultDownstreamCredential is the default basic-auth username and password of the workflow engine.
const DefaultDownstreamCredential = "admin"

var (
	// Global is a struct that contains the global configuration.
	Global global
	// GitHub is a struct that contains the configuration of the inbound GitHub webhook.
	GitHub github
	// Downstream is a struct that contains the configuration of the workflow engine endpoint.
	Downstream downstream
	// Service is a struct that contains the configuration for the HTTP service.
	Service service
	// Archive is a struct that contains the configuration of the S3 payload archive.
	Archive archive
)

type global struct {
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty" default:"1"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
	// SSMKey names an SSM parameter holding a JSON document of secrets. Empty disables the lookup.
	SSMKey string `yaml:"ssmKey,omitempty"`
}

type github struct {
	// WebhookSecret is the shared secret used to sign webhook payloads.
	WebhookSecret string `yaml:"webhookSecret,omitempty"`
}

type downstream struct {
	// URL is the workflow engine webhook endpoint receiving the forwarded payloads.
	URL      string `yaml:"url,omitempty"`
	// Username and Password are the basic-auth credentials sent with every forward.
	Username string `yaml:"username,omitempty" default:"admin"`
	Password string `yaml:"password,omitempty" default:"admin"`
	// Timeout bounds each forward. Zero leaves the transport defaults in place.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type service struct {
	Path        string        `yaml:"path,omitempty" default:"/webhook"`
	Addr        string        `yaml:"addr,omitempty"`
	Port        string        `yaml:"port,omitempty" default:"3000"`
	Timeout     time.Duration `yaml:"timeout,omitempty" default:"30s"`
	MaxBodySize int64         `yaml:"maxBodySize,omitempty" default:"26214400"`
}

type archive struct {
	S3 struct {
		BucketName string `yaml:"bucketName,omitempty"`
		Enabled    bool   `yaml:"enabled,omitempty"`
	} `yaml:"s3,omitempty"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&GitHub),
		defaults.Set(&Downstream),
		defaults.Set(&Service),
		defaults.Set(&Archive),
	)
}

// LoadFromFile loads the configuration from a file. A missing file is not an error.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global     global     `yaml:"global,omitempty"`
		GitHub     github     `yaml:"github,omitempty"`
		Downstream downstream `yaml:"downstream,omitempty"`
		Service    service    `yaml:"service,omitempty"`
		Archive    archive    `yaml:"archive,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	GitHub = a.GitHub
	Downstream = a.Downstream
	Service = a.Service
	Archive = a.Archive

	return nil
}

// Validate reports every missing or malformed required parameter.
func Validate() error {
	var errs []error
	if GitHub.WebhookSecret == "" {
		errs = append(errs, errors.New("missing GitHub webhook secret [GITHUB_WEBHOOK_SECRET]"))
	}
	if Downstream.URL == "" {
		errs = append(errs, errors.New("missing downstream webhook URL [KESTRA_WEBHOOK_URL]"))
	} else if u, err := url.Parse(Downstream.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid downstream webhook URL %q", Downstream.URL))
	}
	if Service.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("invalid maximum body size %d", Service.MaxBodySize))
	}
	if Archive.S3.Enabled && Archive.S3.BucketName == "" {
		errs = append(errs, errors.New("S3 archive is enabled but no bucket is configured"))
	}
	return errors.Join(errs...)
}
