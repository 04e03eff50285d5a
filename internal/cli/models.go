package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
)

var modelsRemote bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List whisper.cpp models",
	Long: `List ggml models downloaded for the whisper.cpp engine.

Use -r to list every model that can be downloaded.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

var modelsDownloadCmd = &cobra.Command{
	Use:       "download <model>",
	Short:     "Download a whisper.cpp model",
	Args:      cobra.ExactArgs(1),
	ValidArgs: modelNames(),
	RunE:      runModelsDownload,
}

var modelsRmCmd = &cobra.Command{
	Use:       "rm <model>",
	Short:     "Remove a downloaded model",
	Args:      cobra.ExactArgs(1),
	ValidArgs: modelNames(),
	RunE:      runModelsRm,
}

func init() {
	modelsCmd.Flags().BoolVarP(&modelsRemote, "remote", "r", false, "list models available for download")

	modelsCmd.AddCommand(modelsDownloadCmd)
	modelsCmd.AddCommand(modelsRmCmd)
	rootCmd.AddCommand(modelsCmd)
}

func modelNames() []string {
	names := make([]string, 0, len(transcriber.ASRModels))
	for _, m := range transcriber.ASRModels {
		names = append(names, m.Name)
	}
	return names
}

func modelManager(cmd *cobra.Command) (*transcriber.ModelManager, error) {
	cfg, _, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	return transcriber.NewModelManager(cfg.ModelsDir), nil
}

func runModels(cmd *cobra.Command, args []string) error {
	mm, err := modelManager(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	sizeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))   // cyan

	if modelsRemote {
		fmt.Fprintln(out, headerStyle.Render("Available models:"))
		fmt.Fprintln(out)
		for _, m := range transcriber.ASRModels {
			downloaded := ""
			if mm.IsModelDownloaded(m.Name) {
				downloaded = " [downloaded]"
			}
			fmt.Fprintf(out, "  %s %s  %s%s\n",
				nameStyle.Render(fmt.Sprintf("%-16s", m.Name)),
				sizeStyle.Render(fmt.Sprintf("%7s", m.Size)),
				m.Description, downloaded)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Download a model:")
		fmt.Fprintf(out, "  %s\n", cmdStyle.Render("voicetext models download <model>"))
		return nil
	}

	downloaded := mm.ListDownloadedModels()
	if len(downloaded) == 0 {
		fmt.Fprintln(out, "No models downloaded.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Download a model:")
		fmt.Fprintf(out, "  %s\n", cmdStyle.Render("voicetext models download large-v3-turbo"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "See available models:")
		fmt.Fprintf(out, "  %s\n", cmdStyle.Render("voicetext models -r"))
		return nil
	}

	fmt.Fprintln(out, headerStyle.Render("Downloaded models:"))
	fmt.Fprintln(out)
	for _, m := range downloaded {
		fmt.Fprintf(out, "  %s %s  %s\n",
			nameStyle.Render(fmt.Sprintf("%-16s", m.Name)),
			sizeStyle.Render(fmt.Sprintf("%7s", m.Size)),
			m.Description)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Models directory: %s\n", mm.Dir())
	return nil
}

func runModelsDownload(cmd *cobra.Command, args []string) error {
	modelName := args[0]

	model := transcriber.GetModel(modelName)
	if model == nil {
		return fmt.Errorf("unknown model '%s' (see 'voicetext models -r')", modelName)
	}

	mm, err := modelManager(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if mm.IsModelDownloaded(modelName) {
		fmt.Fprintf(out, "Model '%s' is already downloaded.\n", modelName)
		fmt.Fprintf(out, "Location: %s\n", mm.ModelPath(modelName))
		return nil
	}

	fmt.Fprintf(out, "Downloading %s (%s)\n", model.Name, model.Size)
	fmt.Fprintf(out, "URL: %s\n", model.URL)

	// progress only on a terminal
	var progress transcriber.ProgressFunc
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		progress = transcriber.TextProgress(out)
	}

	path, err := mm.Download(cmd.Context(), modelName, progress)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Download complete!")
	fmt.Fprintf(out, "Location: %s\n", path)
	return nil
}

func runModelsRm(cmd *cobra.Command, args []string) error {
	mm, err := modelManager(cmd)
	if err != nil {
		return err
	}
	if err := mm.RemoveModel(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed model: %s\n", args[0])
	return nil
}
