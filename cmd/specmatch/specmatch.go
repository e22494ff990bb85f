// Package specmatchcmder
package specmatchcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/spectralworks/specmatch/cmd/specmatch/config"
	librarycmder "github.com/spectralworks/specmatch/cmd/specmatch/library"
	processcmder "github.com/spectralworks/specmatch/cmd/specmatch/process"
	runcmder "github.com/spectralworks/specmatch/cmd/specmatch/run"
	runscmder "github.com/spectralworks/specmatch/cmd/specmatch/runs"
	servecmder "github.com/spectralworks/specmatch/cmd/specmatch/serve"
	watchcmder "github.com/spectralworks/specmatch/cmd/specmatch/watch"
	workflowcmder "github.com/spectralworks/specmatch/cmd/specmatch/workflow"
	versioncmder "github.com/spectralworks/specmatch/cmd/version"
)

const specmatchLongDesc string = `Specmatch processes and scores mass spectrometry spectra.

Score spectra using:
  specmatch workflow init           Write a starter workflow file
  specmatch run queries.msp         Score spectra against themselves
  specmatch run -r lib.db q.msp     Score queries against a reference library

Run services using:
  specmatch serve                   Run the scoring API server`

const specmatchShortDesc string = "Specmatch - Spectra Processing and Scoring"

func NewSpecmatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specmatch",
		Short: specmatchShortDesc,
		Long:  specmatchLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .specmatch/ config directory")

	// Add subcommands
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(processcmder.NewProcessCmd())
	cmd.AddCommand(workflowcmder.NewWorkflowCmd())
	cmd.AddCommand(librarycmder.NewLibraryCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(runscmder.NewRunsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
