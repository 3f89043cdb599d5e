package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ringd/internal/dbus"
	"github.com/jmylchreest/ringd/internal/model"
	"github.com/jmylchreest/ringd/internal/ringer"
)

var startOpts struct {
	ringtone string
	caller   string
}

var statusOpts struct {
	quiet bool // Suppress output, return exit code only
}

// startCmd asks the daemon to ring.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Ask ringd to start ringing",
	Long: `Ask a running ringd to start ringing for an incoming call.

Any call already ringing is stopped first.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

// stopCmd asks the daemon to stop ringing.
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask ringd to stop ringing",
	Long:  `Ask a running ringd to stop ringing. Does nothing when no call is ringing.`,
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

// statusCmd shows whether the daemon is ringing.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether ringd is ringing",
	Long: `Show whether a running ringd is ringing and the current ringer mode.

Exit code: 0 when idle, 1 when ringing.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	startCmd.Flags().StringVarP(&startOpts.ringtone, "ringtone", "r", "",
		`Ringtone name (empty for default, "system_ringtone_default" for the system sound)`)
	startCmd.Flags().StringVar(&startOpts.caller, "caller", "",
		"Caller name, used in ringd logs")
	statusCmd.Flags().BoolVarP(&statusOpts.quiet, "quiet", "q", false,
		"Suppress output, return exit code only (0=idle, 1=ringing)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

// callParams builds the parameter bag sent with a Play request.
func callParams(ringtone, caller string) model.Params {
	params := model.Params{model.KeyRingtonePath: ringtone}
	if caller != "" {
		params[model.KeyCallerName] = caller
	}
	return params
}

func runStart(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	if err := client.Play(callParams(startOpts.ringtone, startOpts.caller)); err != nil {
		return fmt.Errorf("is ringd running? %w", err)
	}
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	if err := client.Stop(); err != nil {
		return fmt.Errorf("is ringd running? %w", err)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}

	playing, err := client.Playing()
	if err != nil {
		if !statusOpts.quiet {
			fmt.Fprintf(os.Stderr, "ringd is not running: %v\n", err)
		}
		return err
	}

	if !statusOpts.quiet {
		if playing {
			fmt.Println("Ringing: yes")
		} else {
			fmt.Println("Ringing: no")
		}

		fallback, err := ringer.ParseMode(cfg.Ringer.Mode)
		if err != nil {
			fallback = ringer.ModeNormal
		}
		mode := ringer.NewStateSource(statePath(), fallback, logger).Mode()
		fmt.Printf("Ringer mode: %s\n", mode)
	}

	// Exit code: 0=idle, 1=ringing
	if playing {
		os.Exit(1)
	}
	return nil
}
