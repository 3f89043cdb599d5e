package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ringd/internal/ringer"
)

var modeCmd = &cobra.Command{
	Use:   "mode [normal|vibrate|silent]",
	Short: "Show or set the ringer mode",
	Long: `Show or set the ringer mode used for incoming calls.

  normal   ringtone and vibration
  vibrate  vibration only
  silent   no ringtone and no vibration

The mode is saved to the ringer state file and overrides the [ringer] mode
config setting. ringd picks it up at the start of the next call.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"normal", "vibrate", "silent"},
	RunE:      runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	path := statePath()

	state, err := ringer.LoadState(path)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	if len(args) == 0 {
		printMode(state)
		return nil
	}

	mode, err := ringer.ParseMode(args[0])
	if err != nil {
		return err
	}

	state.SetMode(mode, "cli")
	if err := ringer.SaveState(path, state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	fmt.Printf("Ringer mode: %s\n", mode)
	return nil
}

// printMode prints the effective mode and where it came from.
func printMode(state *ringer.State) {
	if state.Mode == "" {
		fmt.Printf("Ringer mode: %s (from config)\n", strings.ToLower(cfg.Ringer.Mode))
		return
	}

	fmt.Printf("Ringer mode: %s\n", state.Mode)
	if t := state.LastTransition; t != nil {
		fmt.Printf("  Last change: %s\n", formatTransitionTime(state.ChangedAt()))
		if t.From != "" {
			fmt.Printf("  Previous: %s\n", t.From)
		}
		if t.Source != "" {
			fmt.Printf("  Source: %s\n", t.Source)
		}
	}
}

// formatTransitionTime formats a time as a human-readable relative time.
func formatTransitionTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.Time(t)
}
