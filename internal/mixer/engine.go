// SPDX-License-Identifier: EPL-2.0

// Package mixer is the voice engine behind package sound. It owns a fixed
// table of voices, transitions their state, advances their read cursors and
// renders every playing voice into interleaved float32 output.
//
// Voices are addressed by VoiceID. An ID carries a generation, so an ID that
// outlived Free refers to nothing and every call on it is ignored.
package mixer

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Config sizes an Engine.
type Config struct {
	SampleRate int // output frames per second
	Channels   int // output channels
	MaxVoices  int
}

// DefaultConfig matches a typical stereo output with the OpenAL source limit.
func DefaultConfig() Config {
	return Config{SampleRate: 44100, Channels: 2, MaxVoices: 256}
}

// VoiceID addresses one voice slot at one generation. The zero value is invalid.
type VoiceID uint64

func makeID(slot int, gen uint32) VoiceID { return VoiceID(uint64(gen)<<32 | uint64(slot+1)) }

func (id VoiceID) slot() int      { return int(uint32(id)) - 1 }
func (id VoiceID) gen() uint32    { return uint32(id >> 32) }
func (id VoiceID) String() string { return fmt.Sprintf("voice(%d#%d)", id.slot(), id.gen()) }

// Engine mixes voices. All methods are safe for concurrent use.
type Engine struct {
	cfg Config
	log *slog.Logger

	mu       sync.Mutex
	slots    []slot
	free     []int
	listener Listener
	scratch  []float32
}

type slot struct {
	gen   uint32
	voice *voice // nil when the slot is free
}

// New creates an engine. Zero fields of cfg take DefaultConfig values.
func New(cfg Config, logger *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = def.Channels
	}
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = def.MaxVoices
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:      cfg,
		log:      logger.With("component", "mixer"),
		slots:    make([]slot, cfg.MaxVoices),
		free:     make([]int, 0, cfg.MaxVoices),
		listener: defaultListener(),
	}
	for i := cfg.MaxVoices - 1; i >= 0; i-- {
		e.free = append(e.free, i)
	}

	return e
}

func (e *Engine) SampleRate() int { return e.cfg.SampleRate }
func (e *Engine) Channels() int   { return e.cfg.Channels }
func (e *Engine) MaxVoices() int  { return e.cfg.MaxVoices }

// Voices returns the number of allocated voices.
func (e *Engine) Voices() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg.MaxVoices - len(e.free)
}

// Alloc claims a stopped voice with default parameters.
func (e *Engine) Alloc() (VoiceID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.alloc(newVoice())
}

// Copy claims a new voice carrying id's parameters and samples. The copy is
// stopped with its cursor at zero.
func (e *Engine) Copy(id VoiceID) (VoiceID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.lookup(id)
	if src == nil {
		return 0, fmt.Errorf("copy %s: %w", id, ErrStaleVoice)
	}

	v := newVoice()
	v.params = src.params
	v.pcm = src.pcm

	return e.alloc(v)
}

func (e *Engine) alloc(v *voice) (VoiceID, error) {
	if len(e.free) == 0 {
		e.log.Warn("voice limit reached", "max_voices", e.cfg.MaxVoices)
		return 0, fmt.Errorf("%d voices in use: %w", e.cfg.MaxVoices, ErrNoVoice)
	}

	n := len(e.free) - 1
	idx := e.free[n]
	e.free = e.free[:n]

	s := &e.slots[idx]
	s.gen++
	s.voice = v
	id := makeID(idx, s.gen)

	e.log.Debug("voice allocated", "voice", id.String(), "label", v.label)

	return id, nil
}

// Free releases id. Freeing a stale id is a no-op.
func (e *Engine) Free(id VoiceID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.lookup(id)
	if v == nil {
		return
	}

	idx := id.slot()
	e.slots[idx].voice = nil
	e.free = append(e.free, idx)

	e.log.Debug("voice freed", "voice", id.String(), "label", v.label)
}

// lookup returns the live voice for id or nil. Callers hold e.mu.
func (e *Engine) lookup(id VoiceID) *voice {
	idx := id.slot()
	if idx < 0 || idx >= len(e.slots) {
		return nil
	}

	s := &e.slots[idx]
	if s.voice == nil || s.gen != id.gen() {
		return nil
	}

	return s.voice
}

// with runs fn on the live voice for id under the engine lock.
func (e *Engine) with(id VoiceID, fn func(v *voice)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v := e.lookup(id); v != nil {
		fn(v)
	}
}

func (e *Engine) Play(id VoiceID)  { e.with(id, (*voice).play) }
func (e *Engine) Pause(id VoiceID) { e.with(id, (*voice).pause) }
func (e *Engine) Stop(id VoiceID)  { e.with(id, (*voice).stop) }

// State reports the voice state; stale ids read as StateStopped.
func (e *Engine) State(id VoiceID) State {
	st := StateStopped
	e.with(id, func(v *voice) { st = v.state })

	return st
}

// SetSamples attaches pcm to the voice without copying it. A nil pcm
// detaches and stops the voice.
func (e *Engine) SetSamples(id VoiceID, pcm *PCM) {
	e.with(id, func(v *voice) { v.attach(pcm) })
}

// Samples returns the attached PCM or nil.
func (e *Engine) Samples(id VoiceID) *PCM {
	var pcm *PCM
	e.with(id, func(v *voice) { pcm = v.pcm })

	return pcm
}

// Offset reports the read cursor as time from the start of the samples.
func (e *Engine) Offset(id VoiceID) time.Duration {
	var d time.Duration
	e.with(id, func(v *voice) { d = v.offset() })

	return d
}

func (e *Engine) SetOffset(id VoiceID, d time.Duration) {
	e.with(id, func(v *voice) { v.seek(d) })
}

func (e *Engine) SetLooping(id VoiceID, loop bool) {
	e.with(id, func(v *voice) { v.params.loop = loop })
}

func (e *Engine) Looping(id VoiceID) bool {
	var loop bool
	e.with(id, func(v *voice) { loop = v.params.loop })

	return loop
}

// Params returns a snapshot of the voice parameters.
func (e *Engine) Params(id VoiceID) Params {
	var p Params
	e.with(id, func(v *voice) { p = v.params.Params })

	return p
}

// Update applies fn to the voice parameters.
func (e *Engine) Update(id VoiceID, fn func(p *Params)) {
	e.with(id, func(v *voice) { fn(&v.params.Params) })
}

// Listener returns the listener settings.
func (e *Engine) Listener() Listener {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.listener
}

// UpdateListener applies fn to the listener settings.
func (e *Engine) UpdateListener(fn func(l *Listener)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn(&e.listener)
}

// Render mixes every playing voice into dst, which holds interleaved frames
// at the engine rate and channel count, and returns the frames written.
// Voices that reach the end of their samples stop, or wrap when looping.
func (e *Engine) Render(dst []float32) int {
	ch := e.cfg.Channels
	frames := len(dst) / ch
	out := dst[:frames*ch]
	clear(out)

	e.mu.Lock()
	defer e.mu.Unlock()

	if cap(e.scratch) < ch {
		e.scratch = make([]float32, ch)
	}
	frame := e.scratch[:ch]

	for i := range e.slots {
		v := e.slots[i].voice
		if v == nil || v.state != StatePlaying {
			continue
		}

		// a voice with an unusable gain still moves but stays silent
		gain := v.gain(e.listener)
		if !finite(gain) {
			gain = 0
		}
		step := float64(v.params.Pitch) * float64(v.pcm.SampleRate) / float64(e.cfg.SampleRate)

		for f := range frames {
			v.sample(frame)
			for c, s := range frame {
				out[f*ch+c] += s * gain
			}
			if !v.advance(step) {
				break
			}
		}
	}

	for i, s := range out {
		switch {
		case math.IsNaN(float64(s)):
			out[i] = 0
		case s > 1:
			out[i] = 1
		case s < -1:
			out[i] = -1
		}
	}

	return frames
}

// Advance renders d of output and discards it, moving every playing voice
// forward as if the output device had consumed it.
func (e *Engine) Advance(d time.Duration) {
	frames := int(math.Round(d.Seconds() * float64(e.cfg.SampleRate)))
	if frames <= 0 {
		return
	}
	buf := make([]float32, min(frames, 4096)*e.cfg.Channels)

	for frames > 0 {
		n := min(frames, len(buf)/e.cfg.Channels)
		e.Render(buf[:n*e.cfg.Channels])
		frames -= n
	}
}
