package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guiyumin/voicetext/internal/updater"
)

var updateCheck bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update voicetext to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !updateCheck {
			return updater.Update(cmd.Context(), out)
		}

		latest, newer, err := updater.CheckUpdate(cmd.Context())
		if err != nil {
			return err
		}
		switch {
		case latest == nil:
			fmt.Fprintln(out, "No releases found.")
		case newer:
			fmt.Fprintf(out, "Update available: %s (run 'voicetext update')\n", latest.Version())
		default:
			fmt.Fprintln(out, "Already up to date.")
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "only check whether a newer release exists")
	rootCmd.AddCommand(updateCmd)
}
