// Package processcmder provides the process command for cleaning spectra
// files through a filter chain without scoring them.
package processcmder

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/filters"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/specio"
	"github.com/spectralworks/specmatch/pkg/spectrum"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

const processLongDesc string = `Process spectra files through a filter chain without scoring.

Spectra are imported from the given files, run through the query filter
chain, and written to the output file. The filters come from --workflow,
or from a named preset when no workflow file is given.

The output format follows the file extension: .msp writes an MSP text
file, .db or .sqlite writes a spectral library database.

Examples:
  specmatch process raw.msp
  specmatch process --preset minimal -o clean.msp raw.msp
  specmatch process -f workflow.yaml -o library.db raw1.msp raw2.msp`

const processShortDesc string = "Clean spectra files through a filter chain"

type processCommander struct {
	workflowPath string
	preset       string
	output       string

	debug bool
}

func NewProcessCmd() *cobra.Command {
	cmder := &processCommander{}

	cmd := &cobra.Command{
		Use:   "process <spectra-file>...",
		Short: processShortDesc,
		Long:  processLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(args)
		},
	}

	cmd.Flags().StringVarP(&cmder.workflowPath, "workflow", "f", "", "Workflow YAML file supplying the query filter chain")
	cmd.Flags().StringVar(&cmder.preset, "preset", "default",
		fmt.Sprintf("Filter preset when no workflow is given (%s)", strings.Join(filters.PresetNames(), ", ")))
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "processed.msp", "Output file for the processed spectra")

	return cmd
}

func (c *processCommander) run(inputPaths []string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	wf, err := c.loadWorkflow()
	if err != nil {
		return err
	}

	proc, err := wf.QueryProcessor(log)
	if err != nil {
		return err
	}

	var spectra []*spectrum.Spectrum
	for _, path := range inputPaths {
		loaded, err := specio.Load(path, log)
		if err != nil {
			return fmt.Errorf("importing spectra: %w", err)
		}
		spectra = append(spectra, loaded...)
	}

	processed, report := proc.Process(spectra)

	if err := specio.Save(c.output, processed); err != nil {
		return fmt.Errorf("writing processed spectra: %w", err)
	}

	fmt.Print(report.String())
	fmt.Printf("Wrote %d spectra to %s\n", len(processed), c.output)

	return nil
}

// loadWorkflow builds the filter chain: a workflow file wins, otherwise
// the named preset is used on its own.
func (c *processCommander) loadWorkflow() (*workflow.Workflow, error) {
	if c.workflowPath == "" {
		return workflow.New(workflow.Config{QueryPreset: c.preset})
	}

	f, err := os.Open(c.workflowPath)
	if err != nil {
		return nil, fmt.Errorf("opening workflow: %w", err)
	}
	defer f.Close()

	wf, err := workflow.Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", c.workflowPath, err)
	}

	return wf, nil
}
