package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"iselfuzz/internal/harness"
)

var corpusJobs int

func init() {
	corpusCmd.Flags().IntVar(&corpusJobs, "jobs", runtime.NumCPU(), "number of parallel workers")
}

var corpusCmd = &cobra.Command{
	Use:   "corpus <dir> -- [harness options]",
	Short: "Run the verify-and-run protocol over every corpus entry",
	Long: `Walk a corpus directory and drive each entry through verification and the
pipeline. Workers get independent harness instances; the shared target
configuration is read-only after initialization.`,
	RunE: corpusExecution,
}

func corpusExecution(cmd *cobra.Command, args []string) error {
	setupColor(cmd)
	own, harnessArgs := splitAtDash(cmd, args)
	if len(own) != 1 {
		return fmt.Errorf("expected exactly one corpus directory")
	}

	h, err := harness.Initialize(harnessArgs)
	if err != nil {
		return err
	}

	var paths []string
	err = filepath.WalkDir(own[0], func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(paths)

	jobs := corpusJobs
	if jobs < 1 {
		jobs = 1
	}

	var ok, broken atomic.Int64
	var g errgroup.Group
	g.SetLimit(jobs)
	for _, path := range paths {
		path := path
		// Each worker gets its own harness over the shared, frozen config.
		worker := harness.New(h.Config())
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if worker.TestOneInput(data) == harness.StatusOK {
				ok.Add(1)
			} else {
				broken.Add(1)
				statusBad.Fprintf(cmd.OutOrStdout(), "broken")
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d entries: ", len(paths))
	statusOK.Fprintf(cmd.OutOrStdout(), "%d ok", ok.Load())
	fmt.Fprintf(cmd.OutOrStdout(), ", ")
	if broken.Load() > 0 {
		statusBad.Fprintf(cmd.OutOrStdout(), "%d broken", broken.Load())
		fmt.Fprintln(cmd.OutOrStdout())
		return fmt.Errorf("corpus contains broken entries")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d broken\n", broken.Load())
	return nil
}
