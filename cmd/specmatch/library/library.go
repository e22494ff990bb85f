// Package librarycmder provides the library command for maintaining a
// spectral library database.
package librarycmder

import (
	"github.com/spf13/cobra"
)

const libraryLongDesc string = `Maintain a spectral library database.

The library is a sqlite database of reference spectra, addressed by the
library.path config key or the --library flag. Use subcommands to move
spectra in and out of it:
  specmatch library import    Import spectra files into the library
  specmatch library export    Export the library to a spectra file

Examples:
  specmatch library import batch1.msp batch2.msp
  specmatch library import --replace curated.msp
  specmatch library export backup.msp`

const libraryShortDesc string = "Maintain a spectral library database"

func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: libraryShortDesc,
		Long:  libraryLongDesc,
	}

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
