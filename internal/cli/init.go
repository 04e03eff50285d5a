package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guiyumin/voicetext/internal/core/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create voicetext config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.Init(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// configPath is --config when given, else the standard location.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}
