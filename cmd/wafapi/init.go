package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plexusone/wafhttpapi-aws-cdk/wafhttpapi"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [config-file]",
		Short: "Write an example stack config (JSON or YAML by extension)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := wafhttpapi.WriteExampleConfig(path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Printf("\nDeploy with:\n")
			fmt.Printf("  wafapi deploy --config %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
