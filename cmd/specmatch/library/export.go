package librarycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/config"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/specio"
)

const exportLongDesc string = `Export the library to a spectra file.

Writes every spectrum in the library to the given output file. The output
format follows the file extension.

Examples:
  specmatch library export backup.msp
  specmatch library export -L references.db backup.msp`

const exportShortDesc string = "Export the library to a spectra file"

func newExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export <output-file>",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagLibrary})
			cmder.library = v.GetString("library.path")

			return cmder.run(args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagLibrary, &cmder.library)

	return cmd
}

type exportCommander struct {
	library string
	debug   bool
}

func (c *exportCommander) run(outputPath string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	spectra, err := specio.Load(c.library, log)
	if err != nil {
		return fmt.Errorf("loading library: %w", err)
	}

	if err := specio.Save(outputPath, spectra); err != nil {
		return fmt.Errorf("writing spectra: %w", err)
	}

	fmt.Printf("Exported %d spectra to %s\n", len(spectra), outputPath)
	return nil
}
