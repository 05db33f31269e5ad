// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/internal/mixer"
)

// Buffer is an immutable block of interleaved float32 samples in [-1, 1].
// It may be attached to any number of sounds and is never copied by them.
type Buffer struct {
	channels   int
	sampleRate int

	mu   sync.Mutex
	pcm  *mixer.PCM // nil once released
	refs int
}

// NewBuffer copies samples into a new buffer. The sample count must be a
// multiple of channels.
func NewBuffer(samples []float32, channels, sampleRate int) (*Buffer, error) {
	data := make([]float32, len(samples))
	copy(data, samples)

	return wrapSamples(data, channels, sampleRate)
}

// wrapSamples takes ownership of data.
func wrapSamples(data []float32, channels, sampleRate int) (*Buffer, error) {
	if channels < 1 || sampleRate < 1 || len(data)%channels != 0 {
		return nil, fmt.Errorf("%d samples, %d channels, %d Hz: %w",
			len(data), channels, sampleRate, ErrInvalidFormat)
	}

	return &Buffer{
		channels:   channels,
		sampleRate: sampleRate,
		pcm:        &mixer.PCM{Data: data, SampleRate: sampleRate, Channels: channels},
	}, nil
}

// NewBufferInt16 builds a buffer from signed 16-bit PCM.
func NewBufferInt16(samples []int16, channels, sampleRate int) (*Buffer, error) {
	data := make([]float32, len(samples))
	for i, s := range samples {
		data[i] = float32(s) / 32768.0
	}

	return wrapSamples(data, channels, sampleRate)
}

type loadOptions struct {
	sampleRate int
	mono       bool
}

// LoadOption adjusts how LoadBuffer converts its source.
type LoadOption func(*loadOptions)

// WithSampleRate resamples the source to rate.
func WithSampleRate(rate int) LoadOption {
	return func(o *loadOptions) { o.sampleRate = rate }
}

// WithMono averages all channels of the source into one. Only mono buffers
// are attenuated by distance.
func WithMono() LoadOption {
	return func(o *loadOptions) { o.mono = true }
}

// LoadBuffer decodes src to the end and closes it.
func LoadBuffer(src audio.Source, opts ...LoadOption) (buf *Buffer, err error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.mono && src.Channels() != 1 {
		src = audio.NewMonoMixer(src)
	}
	if o.sampleRate > 0 && o.sampleRate != src.SampleRate() {
		src = audio.NewResampler(src, o.sampleRate)
	}

	defer func() {
		if cerr := src.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing source: %w", cerr))
		}
	}()

	samples, err := audio.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("loading buffer: %w", err)
	}

	// trailing partial frame from a truncated stream
	if ch := src.Channels(); ch > 0 {
		samples = samples[:len(samples)-len(samples)%ch]
	}

	return wrapSamples(samples, src.Channels(), src.SampleRate())
}

// Samples returns the sample data, or nil after Release. It must not be
// modified.
func (b *Buffer) Samples() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pcm == nil {
		return nil
	}
	return b.pcm.Data
}

func (b *Buffer) SampleCount() int  { return len(b.Samples()) }
func (b *Buffer) ChannelCount() int { return b.channels }
func (b *Buffer) SampleRate() int   { return b.sampleRate }

// Duration is the playing time at pitch 1.
func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pcm.Duration()
}

// Attached reports how many sounds currently reference b.
func (b *Buffer) Attached() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.refs
}

// Release drops the sample data. It fails with ErrBufferInUse while any
// sound is attached. A released buffer attached later plays silence.
func (b *Buffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refs > 0 {
		return fmt.Errorf("%d sounds: %w", b.refs, ErrBufferInUse)
	}
	b.pcm = nil

	return nil
}

// attach counts a new reference and returns the samples the engine reads.
func (b *Buffer) attach() *mixer.PCM {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refs++
	if b.pcm == nil {
		return &mixer.PCM{SampleRate: b.sampleRate, Channels: b.channels}
	}
	return b.pcm
}

func (b *Buffer) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refs--
}
