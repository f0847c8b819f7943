package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/credvault/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configExampleCmd = &cobra.Command{
	Use:         "example <path>",
	Short:       "Write an example configuration file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveExample(args[0]); err != nil {
			return fmt.Errorf("write example config: %w", err)
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "path": args[0]})
			return nil
		}
		printSuccess("Example configuration written to %s", args[0])
		printInfo("Put the master password in the file named by gate.secret_file, or set CREDVAULT_GATE_SECRET.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			printJSON(map[string]string{"version": version, "commit": commit})
			return
		}
		fmt.Fprintf(stdout, "credvault %s (%s)\n", version, commit)
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
