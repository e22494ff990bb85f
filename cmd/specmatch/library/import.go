package librarycmder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/config"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/specio"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

const importLongDesc string = `Import spectra files into the library.

Spectra from the given files are appended to the library. With --replace
the library's previous contents are dropped first.

Examples:
  specmatch library import batch1.msp batch2.msp
  specmatch library import -L references.db batch.msp
  specmatch library import --replace curated.msp`

const importShortDesc string = "Import spectra files into the library"

func newImportCmd() *cobra.Command {
	cmder := &importCommander{}

	cmd := &cobra.Command{
		Use:   "import <spectra-file>...",
		Short: importShortDesc,
		Long:  importLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagLibrary})
			cmder.library = v.GetString("library.path")

			return cmder.run(args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagLibrary, &cmder.library)
	cmd.Flags().BoolVar(&cmder.replace, "replace", false, "Drop the library's previous contents first")

	return cmd
}

type importCommander struct {
	library string
	replace bool
	debug   bool
}

func (c *importCommander) run(inputPaths []string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	var imported []*spectrum.Spectrum
	for _, path := range inputPaths {
		loaded, err := specio.Load(path, log)
		if err != nil {
			return fmt.Errorf("importing spectra: %w", err)
		}
		imported = append(imported, loaded...)
	}

	// Saving replaces the library, so appending means loading what is
	// already there and writing the combined set back.
	var existing []*spectrum.Spectrum
	if !c.replace {
		var err error
		existing, err = loadExisting(c.library, log)
		if err != nil {
			return err
		}
	}

	combined := append(existing, imported...)
	if err := specio.Save(c.library, combined); err != nil {
		return fmt.Errorf("writing library: %w", err)
	}

	fmt.Printf("Imported %d spectra into %s (%d total)\n", len(imported), c.library, len(combined))
	return nil
}

func loadExisting(path string, log *slog.Logger) ([]*spectrum.Spectrum, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking library: %w", err)
	}

	spectra, err := specio.Load(path, log)
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}
	return spectra, nil
}
