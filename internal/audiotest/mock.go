// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic PCM sources for tests.
// The types satisfy audio.Source without importing it, so any package may use them.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrBroken is returned by a FailingSource.
var ErrBroken = errors.New("audiotest: broken source")

// MockSource generates frames from a waveform function.
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // frames to generate
	generated    int
	waveform     func(sample int, channel int) float32
	closed       bool
}

// NewMockSource creates a source of totalSamples frames whose values come
// from waveform(frameIndex, channel).
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
	}
}

func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewConstantSource(sampleRate, channels, totalSamples, 0)
}

func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return value
	})
}

// NewSliceSource replays interleaved samples.
func NewSliceSource(sampleRate, channels int, samples []float32) *MockSource {
	return NewMockSource(sampleRate, channels, len(samples)/channels, func(sample int, channel int) float32 {
		return samples[sample*channels+channel]
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalSamples-m.generated)
	for f := range frames {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}

	m.generated += frames
	if m.generated >= m.totalSamples {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// FailingSource returns ErrBroken after yielding good frames.
type FailingSource struct {
	*MockSource
	failAfter int
}

// NewFailingSource yields goodFrames of silence, then fails.
func NewFailingSource(sampleRate, channels, goodFrames int) *FailingSource {
	return &FailingSource{
		MockSource: NewSilentSource(sampleRate, channels, goodFrames+1),
		failAfter:  goodFrames,
	}
}

func (f *FailingSource) ReadSamples(dst []float32) (int, error) {
	if f.generated >= f.failAfter {
		return 0, ErrBroken
	}

	limit := (f.failAfter - f.generated) * f.channels
	if len(dst) > limit {
		dst = dst[:limit]
	}
	n, _ := f.MockSource.ReadSamples(dst)

	return n, nil
}
