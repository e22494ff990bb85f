package configcmder

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/config"
)

const initLongDesc string = `Write a preset configuration.

Creates config.toml in the .specmatch/ directory from a named deployment
preset. The local preset archives runs to a sqlite file and keeps run
events off; the server preset points at postgres and kafka.

Examples:
  specmatch config init
  specmatch config init --preset server
  specmatch config init --force`

const initShortDesc string = "Write a preset configuration"

func newInitCmd() *cobra.Command {
	var (
		preset string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runInit(preset, configDir, force)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "local",
		fmt.Sprintf("Deployment preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func runInit(preset, configDir string, force bool) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil && !force {
		return fmt.Errorf("%s already exists, pass --force to overwrite", cfger.GetTarget())
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s preset to %s\n", preset, cfger.GetTarget())
	return nil
}
