package workflowcmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spectralworks/specmatch/pkg/dotdir"
	"github.com/spectralworks/specmatch/pkg/filters"
	"github.com/spectralworks/specmatch/pkg/workflow"
)

const initLongDesc string = `Write a starter workflow file.

The file gets the named filter preset as both the query and reference
chain plus the given score computations, and becomes the workspace's
active workflow so "specmatch run" picks it up without --workflow.

Examples:
  specmatch workflow init
  specmatch workflow init --preset minimal
  specmatch workflow init -o pipelines/routine.yaml --scores cosinegreedy,modifiedcosine`

const initShortDesc string = "Write a starter workflow file"

func newInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "default",
		fmt.Sprintf("Filter preset for both chains (%s)", strings.Join(filters.PresetNames(), ", ")))
	cmd.Flags().StringSliceVar(&cmder.scores, "scores", []string{"cosinegreedy"}, "Score computations, in order")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "workflow.yaml", "Workflow file to write")
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing workflow file")

	return cmd
}

type initCommander struct {
	preset    string
	scores    []string
	output    string
	force     bool
	configDir string
}

func (c *initCommander) run() error {
	if !c.force {
		if _, err := os.Stat(c.output); err == nil {
			return fmt.Errorf("%s already exists, pass --force to overwrite", c.output)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking workflow file: %w", err)
		}
	}

	steps := make([]workflow.ScoreStep, 0, len(c.scores))
	for _, name := range c.scores {
		steps = append(steps, workflow.ScoreStep{Name: name})
	}

	wf, err := workflow.New(workflow.Config{
		QueryPreset:       c.preset,
		ReferencePreset:   c.preset,
		ScoreComputations: steps,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("creating workflow file: %w", err)
	}
	if err := wf.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("writing workflow file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := c.activate(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d query filters, %d score computations)\n",
		c.output, len(wf.QueryFilters()), len(wf.ScoreComputations()))
	fmt.Println("Set as the workspace's active workflow.")

	return nil
}

// activate records the file as the workspace's active workflow, by absolute
// path so runs from other directories still find it.
func (c *initCommander) activate() error {
	path, err := filepath.Abs(c.output)
	if err != nil {
		return fmt.Errorf("resolving workflow path: %w", err)
	}

	manager := dotdir.NewManager()
	state, err := manager.LoadWorkspaceState(c.configDir)
	if err != nil {
		return fmt.Errorf("loading workspace state: %w", err)
	}
	if state == nil {
		state = &dotdir.WorkspaceState{}
	}

	state.WorkflowPath = path
	if err := manager.SaveWorkspace(state, c.configDir); err != nil {
		return fmt.Errorf("saving workspace state: %w", err)
	}

	return nil
}
