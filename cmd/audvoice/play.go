// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
	"github.com/ik5/audvoice/internal/log"
	"github.com/ik5/audvoice/output"
	"github.com/ik5/audvoice/sound"
)

// pollInterval is how often play checks whether the sound has ended.
const pollInterval = 20 * time.Millisecond

func newPlayCmd(a *app) *cobra.Command {
	var p playback

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play an audio file until it ends or is interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.play(cmd.Context(), args[0], p)
		},
	}

	p.register(cmd)
	cmd.Flags().String("output", "", "output driver: oto or null")
	_ = a.v.BindPFlag("output", cmd.Flags().Lookup("output"))

	return cmd
}

func (a *app) play(ctx context.Context, path string, p playback) error {
	buf, err := audvoice.LoadFile(path, sound.WithSampleRate(a.cfg.SampleRate))
	if err != nil {
		return err
	}

	dev := a.newDevice()
	snd := dev.NewSoundWithBuffer(buf)
	defer snd.Close()
	p.apply(snd)

	out, err := output.Open(a.cfg.Output, dev)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer out.Close()

	log.Info("playing", "file", path, "duration", buf.Duration(), "loop", p.loop)
	snd.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			snd.Stop()
			log.Info("interrupted", "offset", snd.PlayingOffset())
			return nil
		case <-ticker.C:
			if snd.Status() == sound.Stopped {
				log.Debug("playback finished", "file", path)
				return nil
			}
		}
	}
}
