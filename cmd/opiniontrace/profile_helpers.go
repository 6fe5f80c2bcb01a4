package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"opiniontrace/internal/prof"
)

// setupProfiling inspects the persistent profiling flags and starts
// the corresponding collectors. The returned cleanup is safe to call
// multiple times.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	cpuPath, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memPath, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	session, err := prof.Start(prof.Options{
		CPUPath:   cpuPath,
		MemPath:   memPath,
		TracePath: tracePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}

	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to finish profiling: %v\n", err)
		}
	}, nil
}
