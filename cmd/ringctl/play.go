package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ringd/internal/audio"
	"github.com/jmylchreest/ringd/internal/ringer"
	"github.com/jmylchreest/ringd/internal/ringtone"
)

var playOpts struct {
	duration time.Duration
	volume   int
}

var playCmd = &cobra.Command{
	Use:   "play [name]",
	Short: "Play a ringtone locally",
	Long: `Play a ringtone in this process, looping until interrupted.

The name resolves the same way as for incoming calls. Vibration and the
screen-off listener are left to ringd; this only plays audio. The ringer
mode is ignored so a ringtone can be previewed while silent.

Examples:
  ringctl play
  ringctl play bell --duration 5s
  ringctl play system_ringtone_default --volume 30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().DurationVarP(&playOpts.duration, "duration", "d", 0,
		"Stop after this long (default: until interrupted)")
	playCmd.Flags().IntVar(&playOpts.volume, "volume", -1,
		"Volume 0-100 (default: from config)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	playCfg := *cfg
	playCfg.Audio.Enabled = true
	playCfg.Vibration.Enabled = false
	playCfg.Screen.AutoStop = false
	if playOpts.volume >= 0 {
		playCfg.Audio.Volume = playOpts.volume
		if err := playCfg.Validate(); err != nil {
			return err
		}
	}

	catalog := ringtone.NewCatalog(playCfg.Ringtone, logger)
	res := catalog.Resolve(name)
	if !res.Found() {
		return fmt.Errorf("no ringtone available for %q", name)
	}

	backend, err := audio.NewBackend(playCfg.Audio, catalog, logger)
	if err != nil {
		return err
	}

	manager := audio.NewManager(&playCfg, audio.Deps{
		Resolver: catalog,
		Backend:  backend,
		Ringer:   ringer.Static(ringer.ModeNormal),
	}, logger)
	defer manager.Destroy()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if playOpts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playOpts.duration)
		defer cancel()
	}

	fmt.Printf("Playing %s (%s)\n", res.URI, res.Source)
	if !backend.SupportsLooping() {
		fmt.Println("This audio backend cannot loop; the ringtone plays once.")
	}

	manager.Play(callParams(name, ""))
	<-ctx.Done()
	return nil
}
