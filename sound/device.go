// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/ik5/audvoice/internal/config"
	"github.com/ik5/audvoice/internal/log"
	"github.com/ik5/audvoice/internal/mixer"
)

// DeviceConfig sizes a Device. Zero fields take the package defaults.
type DeviceConfig struct {
	SampleRate int
	Channels   int
	MaxVoices  int
	Logger     *slog.Logger
}

// Device mixes the voices of its sounds into interleaved float32 frames.
// Nothing is heard until something calls Render; see package output.
type Device struct {
	engine *mixer.Engine
	log    *slog.Logger
}

// NewDevice creates a device with its own voice table and listener.
func NewDevice(cfg DeviceConfig) *Device {
	logger := cfg.Logger
	if logger == nil {
		logger = log.L()
	}

	e := mixer.New(mixer.Config{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		MaxVoices:  cfg.MaxVoices,
	}, logger)

	return &Device{
		engine: e,
		log:    logger.With("component", "sound"),
	}
}

var (
	defaultOnce   sync.Once
	defaultDevice *Device
)

// Default returns the process-wide device used by NewSound and
// NewSoundWithBuffer, created on first use with the built-in configuration.
func Default() *Device {
	defaultOnce.Do(func() {
		c := config.Default()
		defaultDevice = NewDevice(DeviceConfig{
			SampleRate: c.SampleRate,
			Channels:   c.Channels,
			MaxVoices:  c.MaxVoices,
		})
	})

	return defaultDevice
}

func (d *Device) SampleRate() int { return d.engine.SampleRate() }
func (d *Device) Channels() int   { return d.engine.Channels() }

// Voices returns how many sounds currently hold a voice.
func (d *Device) Voices() int { return d.engine.Voices() }

// Render mixes the next len(dst)/Channels() frames into dst and returns the
// number of frames written.
func (d *Device) Render(dst []float32) int { return d.engine.Render(dst) }

// Advance consumes dur of output without producing it.
func (d *Device) Advance(dur time.Duration) { d.engine.Advance(dur) }

// Listener returns the listener every sound of d is heard from.
func (d *Device) Listener() Listener { return Listener{engine: d.engine} }

// NewSound returns a stopped sound with no buffer. It panics when the
// device has no free voice.
func (d *Device) NewSound() *Sound {
	id, err := d.engine.Alloc()
	if err != nil {
		panic(fmt.Errorf("sound: new sound: %w", err))
	}

	return d.wrap(&voice{dev: d, id: id})
}

// NewSoundWithBuffer returns a stopped sound attached to buf. It panics
// when the device has no free voice.
func (d *Device) NewSoundWithBuffer(buf *Buffer) *Sound {
	s := d.NewSound()
	s.SetBuffer(buf)

	return s
}

// wrap registers a cleanup that returns the voice of a leaked Sound.
func (d *Device) wrap(v *voice) *Sound {
	s := &Sound{v: v}
	s.cleanup = runtime.AddCleanup(s, func(v *voice) {
		if v.release() {
			d.log.Warn("sound garbage collected without Close", "voice", v.id.String())
		}
	}, v)

	return s
}

// NewSound creates a sound on the Default device.
func NewSound() *Sound { return Default().NewSound() }

// NewSoundWithBuffer creates a sound attached to buf on the Default device.
func NewSoundWithBuffer(buf *Buffer) *Sound { return Default().NewSoundWithBuffer(buf) }

// Listener holds the global volume and position of a device.
type Listener struct {
	engine *mixer.Engine
}

// SetGlobalVolume scales every sound of the device, in the range 0 to 100.
func (l Listener) SetGlobalVolume(volume float32) {
	l.engine.UpdateListener(func(ls *mixer.Listener) { ls.Volume = volume })
}

func (l Listener) GlobalVolume() float32 { return l.engine.Listener().Volume }

// SetPosition moves the listener. Sounds that are relative to the listener
// are unaffected.
func (l Listener) SetPosition(pos Vector3f) {
	l.engine.UpdateListener(func(ls *mixer.Listener) { ls.Position = pos.vec() })
}

func (l Listener) Position() Vector3f { return vectorOf(l.engine.Listener().Position) }
