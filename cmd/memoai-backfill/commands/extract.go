package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kairiskai/MemoAI/internal/extract"
	"github.com/Kairiskai/MemoAI/internal/provider"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the transcript extracted from one saved page",
	Long: `Run the extraction pipeline on a single saved page and print the
resulting conversation as JSON. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("model", "m", "Claude", "provider tag of the page")
	extractCmd.Flags().Bool("markdown", false, "print only the markdown transcript")
}

func runExtract(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	markdownOnly, _ := cmd.Flags().GetBool("markdown")

	data, err := os.ReadFile(args[0])
	if err != nil {
		logError("read %s: %v", args[0], err)
		return err
	}

	ext := extract.New(provider.Default(), slog.Default())
	conv, err := ext.Extract(string(data), model)
	if err != nil {
		logError("%v", err)
		return err
	}

	out := cmd.OutOrStdout()
	if markdownOnly {
		_, err = fmt.Fprintln(out, conv.Content)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(conv)
}
