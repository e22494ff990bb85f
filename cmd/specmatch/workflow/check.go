package workflowcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/workflow"
)

const checkLongDesc string = `Validate a workflow file.

Loads the file and resolves every filter and score computation name, so
configuration typos surface here instead of failing a run.

Examples:
  specmatch workflow check workflow.yaml`

const checkShortDesc string = "Validate a workflow file"

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <workflow-file>",
		Short: checkShortDesc,
		Long:  checkLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCheck(args[0])
		},
	}

	return cmd
}

func runCheck(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening workflow: %w", err)
	}
	defer f.Close()

	wf, err := workflow.Load(f)
	if err != nil {
		return fmt.Errorf("workflow invalid: %w", err)
	}

	fmt.Printf("%s OK\n", path)
	fmt.Printf("  query filters:      %d\n", len(wf.QueryFilters()))
	fmt.Printf("  reference filters:  %d\n", len(wf.ReferenceFilters()))
	fmt.Printf("  score computations: %d\n", len(wf.ScoreComputations()))

	return nil
}
