package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ringd/internal/adapter/output"
	"github.com/jmylchreest/ringd/internal/ringtone"
)

var resolveOpts struct {
	format string
	field  string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Show which ringtone a name resolves to",
	Long: `Resolve a ringtone name the way ringd does when a call comes in.

An empty name selects the bundled default, then the system default, then
the first system ringtone. "system_ringtone_default" skips the bundled
default. Unknown names fall back to the default chain.

Examples:
  ringctl resolve
  ringctl resolve bell
  ringctl resolve system_ringtone_default --field path`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, uris)")
	resolveCmd.Flags().StringVar(&resolveOpts.field, "field", "",
		"Print a single field (name, uri, path, source, size)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	catalog := ringtone.NewCatalog(cfg.Ringtone, logger)
	res := catalog.Resolve(name)
	if !res.Found() {
		return fmt.Errorf("no ringtone available for %q: calls would ring silently", name)
	}

	entry := ringtone.Entry{Name: name, URI: res.URI, Source: res.Source.String()}
	if name == "" {
		entry.Name = "(default)"
	}
	if entries, err := catalog.Entries(); err == nil {
		for _, e := range entries {
			if e.URI == res.URI {
				entry.Size = e.Size
				break
			}
		}
	}

	if resolveOpts.field != "" {
		fmt.Println(output.FormatField(&entry, resolveOpts.field))
		return nil
	}

	formatter, err := createFormatter(resolveOpts.format, "", false)
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, []ringtone.Entry{entry})
}
