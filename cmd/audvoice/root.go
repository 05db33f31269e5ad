// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/audvoice/internal/config"
	"github.com/ik5/audvoice/internal/log"
	"github.com/ik5/audvoice/sound"
)

// app carries state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "audvoice",
		Short: "Play and render audio files through the audvoice mixer",
		Long: `audvoice decodes WAV, MP3, Ogg Vorbis and AIFF files into memory and plays
them through a software mixer, either on the system audio device or offline
into a WAV file.

Settings come from --config, AUDVOICE_* environment variables and flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Int("sample-rate", 0, "mixer sample rate in Hz")
	flags.Int("channels", 0, "mixer channel count")
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("sample_rate", flags.Lookup("sample-rate"))
	_ = a.v.BindPFlag("channels", flags.Lookup("channels"))

	root.AddCommand(
		newPlayCmd(a),
		newRenderCmd(a),
		newInfoCmd(),
	)

	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	log.InitWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	log.Debug("configuration loaded",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"max_voices", cfg.MaxVoices,
		"output", cfg.Output)

	return nil
}

func (a *app) newDevice() *sound.Device {
	return sound.NewDevice(sound.DeviceConfig{
		SampleRate: a.cfg.SampleRate,
		Channels:   a.cfg.Channels,
		MaxVoices:  a.cfg.MaxVoices,
		Logger:     log.L(),
	})
}

// playback holds the per-sound flags shared by play and render.
type playback struct {
	loop   bool
	pitch  float32
	volume float32
	offset time.Duration
}

func (p *playback) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&p.loop, "loop", false, "loop until interrupted")
	f.Float32Var(&p.pitch, "pitch", 1, "playback speed multiplier")
	f.Float32Var(&p.volume, "volume", 100, "volume from 0 to 100")
	f.DurationVar(&p.offset, "offset", 0, "start position, e.g. 1.5s")
}

func (p *playback) apply(s *sound.Sound) {
	s.SetLooping(p.loop)
	s.SetPitch(p.pitch)
	s.SetVolume(p.volume)
	s.SetPlayingOffset(p.offset)
}
