// Package configcmder provides the config command for managing persistent
// specmatch configuration stored in the .specmatch/ directory.
package configcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/config"
)

const configLongDesc string = `Manage persistent specmatch configuration.

Configuration is stored as config.toml in the .specmatch/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, with SPECMATCH_* environment variables in between.

Keys use dotted notation matching the TOML section structure:
  processing.workers, library.path,
  archive.provider, archive.target,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  api.listen

Use subcommands to get, set, list, or initialize configuration values:
  specmatch config set <key> <value>    Set a configuration value
  specmatch config get <key>            Get a configuration value
  specmatch config list                 List all configuration values
  specmatch config init                 Write a preset configuration

Examples:
  specmatch config set archive.provider sqlite
  specmatch config set archive.target specmatch.db
  specmatch config get library.path
  specmatch config list`

const configShortDesc string = "Manage persistent specmatch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}

// printConfigTarget reports which config file backs the command, if any.
func printConfigTarget(cfger *config.Configer) {
	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		fmt.Printf("Using config file: %s\n\n", cfger.GetTarget())
	} else {
		fmt.Print("No config file found. Using default config.\n\n")
	}
}
