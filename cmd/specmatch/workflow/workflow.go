// Package workflowcmder provides the workflow command for creating and
// checking pipeline workflow files.
package workflowcmder

import (
	"github.com/spf13/cobra"
)

const workflowLongDesc string = `Manage pipeline workflow files.

A workflow file declares the query and reference filter chains and the
ordered score computations a run executes. Use subcommands to write a
starter file or to validate an existing one:
  specmatch workflow init     Write a starter workflow file
  specmatch workflow check    Validate a workflow file

Examples:
  specmatch workflow init
  specmatch workflow init --preset basic --scores cosinegreedy,modifiedcosine
  specmatch workflow check workflow.yaml`

const workflowShortDesc string = "Manage pipeline workflow files"

func NewWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: workflowShortDesc,
		Long:  workflowLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}
