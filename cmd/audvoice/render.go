// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
	"github.com/ik5/audvoice/formats/wav"
	"github.com/ik5/audvoice/internal/log"
)

// renderBlock is the number of frames mixed per Render call.
const renderBlock = 4096

var (
	errNeedDuration      = errors.New("--duration is required with --loop")
	errPitchNeedDuration = errors.New("--duration is required unless --pitch is positive")
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		p        playback
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render <file> <out.wav>",
		Short: "Mix an audio file offline into a WAV file",
		Long: `render plays the file through the mixer faster than real time and writes
the mixed output as 16-bit PCM WAV at the configured rate and channel count.
Without --duration the render covers the rest of the sound.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(args[0], args[1], p, duration)
		},
	}

	p.register(cmd)
	cmd.Flags().DurationVar(&duration, "duration", 0, "length of the output")

	return cmd
}

func (a *app) render(in, out string, p playback, duration time.Duration) error {
	if duration <= 0 {
		if p.loop {
			return errNeedDuration
		}
		if !(p.pitch > 0) {
			return errPitchNeedDuration
		}
	}

	buf, err := audvoice.LoadFile(in)
	if err != nil {
		return err
	}

	dev := a.newDevice()
	snd := dev.NewSoundWithBuffer(buf)
	defer snd.Close()
	p.apply(snd)

	if duration <= 0 {
		remaining := buf.Duration() - snd.PlayingOffset()
		duration = time.Duration(float64(remaining) / float64(p.pitch))
	}

	snd.Play()

	ch := dev.Channels()
	frames := int(duration.Seconds() * float64(dev.SampleRate()))
	mixed := make([]float32, frames*ch)
	for pos := 0; pos < frames; pos += renderBlock {
		end := min(pos+renderBlock, frames)
		dev.Render(mixed[pos*ch : end*ch])
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	if err := wav.Encode(f, dev.SampleRate(), ch, mixed); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %q: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", out, err)
	}

	log.Info("rendered", "file", out, "frames", frames, "duration", duration)

	return nil
}
