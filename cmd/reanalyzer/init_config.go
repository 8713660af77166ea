package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"reanalyzer/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [output]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := config.FileNames[0]
		if len(args) > 0 {
			output = args[0]
		}
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to get force flag: %w", err)
		}
		if err := writeDefaultConfig(output, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", output)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return config.Default().Save(path)
}
