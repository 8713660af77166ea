package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reanalyzer/internal/prof"
)

// setupProfiling starts the profilers named by the persistent profiling
// flags and returns their cleanup.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := root.PersistentFlags().GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	session, err := prof.Start(prof.Options{
		CPUProfile:   cpuProfile,
		MemProfile:   memProfile,
		RuntimeTrace: tracePath,
	})
	if err != nil {
		return nil, err
	}
	if !session.Active() {
		return func() {}, nil
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
