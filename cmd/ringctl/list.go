package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ringd/internal/adapter/output"
	"github.com/jmylchreest/ringd/internal/ringtone"
)

var listOpts struct {
	format    string
	template  string
	showIndex bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available ringtones",
	Long: `List the bundled ringtones followed by the system ringtones.

System ringtones come from the freedesktop sound theme and the ringtones
sound directory under each XDG data directory.

Examples:
  ringctl list
  ringctl list --format json
  ringctl list --format uris | fzf | xargs ringctl play`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, uris)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Custom Go template for plain output")
	listCmd.Flags().BoolVar(&listOpts.showIndex, "index", false,
		"Prefix plain output with a 1-based index")
}

func runList(cmd *cobra.Command, args []string) error {
	formatter, err := createFormatter(listOpts.format, listOpts.template, listOpts.showIndex)
	if err != nil {
		return err
	}

	catalog := ringtone.NewCatalog(cfg.Ringtone, logger)
	entries, err := catalog.Entries()
	if err != nil {
		logger.Warn("failed to list system ringtones", "error", err)
	}

	return formatter.Format(os.Stdout, entries)
}

// createFormatter creates the output formatter based on flags.
func createFormatter(format, template string, showIndex bool) (output.Formatter, error) {
	ft, err := output.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("invalid --format: %w", err)
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = template
	opts.ShowIndex = showIndex
	return output.NewFormatter(ft, opts), nil
}
