// Package cmd provides the entrypoint for the gh-webhook-relay cli.
package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/isometry/gh-webhook-relay/internal/config"
	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configFileEnv names the environment variable holding the configuration file path.
const configFileEnv = "CONFIG_FILE"

var logger = helpers.NewNoopLogger()

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for the gh-webhook-relay.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gh-webhook-relay",
		Short:        "Relay signed GitHub webhooks to a workflow engine",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger = helpers.NewLogger(config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace).
				With(slog.String("app", "gh-webhook-relay"))
		},
		RunE: runService,
	}

	// .env never overrides variables already present in the environment
	_ = godotenv.Load()

	// Configuration loading & defaults
	configFilePath, found := os.LookupEnv(configFileEnv)
	if !found {
		configFilePath = "config.yaml"
	}
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(cmdService())

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapCount)
	bindEnvMap(cmd, envMapDuration)
	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)
	bindEnvMap(cmd, svcEnvMapInt64)
}
