package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/guiyumin/voicetext/internal/core/config"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for voicetext.

Bash:
  # Add to ~/.bashrc:
  source <(voicetext completion bash)

Zsh:
  # Add to ~/.zshrc:
  source <(voicetext completion zsh)

  # Or install to fpath:
  voicetext completion zsh > "${fpath[1]}/_voicetext"

Fish:
  voicetext completion fish > ~/.config/fish/completions/voicetext.fish

PowerShell:
  voicetext completion powershell >> $PROFILE
`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// registerFlagCompletions runs from root.go's init, after the flags exist.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("engine", fixedCompletion(
		config.EngineFasterWhisper, config.EngineWhisperCPP, config.EngineOpenAI))
	_ = rootCmd.RegisterFlagCompletionFunc("device", fixedCompletion("auto", "cpu", "cuda", "metal"))
	_ = rootCmd.RegisterFlagCompletionFunc("compute-type", fixedCompletion("float16", "int8_float16", "int8", "float32"))
	_ = rootCmd.RegisterFlagCompletionFunc("model", fixedCompletion(modelNames()...))

	// the positional argument is a local media file
	rootCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveDefault
	}
}

// fixedCompletion completes a flag from a fixed list of values.
func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
