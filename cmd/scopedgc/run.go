package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pavanmanishd/scopedgc/internal/workload"
)

// runReport is the outcome of one workload file.
type runReport struct {
	Path   string           `json:"path"`
	Passed bool             `json:"passed"`
	Error  string           `json:"error,omitempty"`
	Result *workload.Result `json:"result,omitempty"`
}

func newRunCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <workload.yaml>...",
		Short: "Run workload files",
		Long: `The run command executes scripted workload files. Each step is a command
line such as "alloc a", "link a b", "release a", "collect" or
"expect records=0 bytes=0". A workload fails at its first failing step.

Example:
  scopedgc run testdata/cycle.yaml
  scopedgc run --json workloads/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkloads(cmd, g, args)
		},
	}
}

func runWorkloads(cmd *cobra.Command, g *globalFlags, paths []string) error {
	out := cmd.OutOrStdout()
	log := g.logger(cmd.ErrOrStderr())

	reports := make([]runReport, 0, len(paths))
	failed := 0
	for _, path := range paths {
		rep := runReport{Path: path}
		f, err := workload.Load(path)
		if err == nil {
			rep.Result, err = workload.Run(f, log)
		}
		if err != nil {
			failed++
			rep.Error = err.Error()
		} else {
			rep.Passed = true
		}
		reports = append(reports, rep)

		if g.jsonOut {
			continue
		}
		if !rep.Passed {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %s\n", path, rep.Error)
			continue
		}
		m := rep.Result.Metrics
		g.printInfo(out, "PASS %s (%d steps, %d collections, %d freed, %s live)\n",
			rep.Result.Name, len(rep.Result.Steps), m.Collections, m.TotalFrees, formatBytes(m.BytesTracked))
	}

	if g.jsonOut {
		if err := printJSON(out, reports); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d workloads failed", failed, len(paths))
	}
	return nil
}
