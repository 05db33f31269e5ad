// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// newTestEngine runs at 1 kHz so that one frame is one millisecond.
func newTestEngine(t testing.TB, channels, voices int) *Engine {
	t.Helper()
	return New(Config{SampleRate: 1000, Channels: channels, MaxVoices: voices}, nil)
}

func constPCM(rate, channels, frames int, v float32) *PCM {
	data := make([]float32, frames*channels)
	for i := range data {
		data[i] = v
	}
	return &PCM{Data: data, SampleRate: rate, Channels: channels}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil)
	assert.Equal(t, DefaultConfig().SampleRate, e.SampleRate())
	assert.Equal(t, DefaultConfig().Channels, e.Channels())
	assert.Equal(t, DefaultConfig().MaxVoices, e.MaxVoices())
	assert.Zero(t, e.Voices())
	assert.Equal(t, Listener{Volume: 100}, e.Listener())
}

func TestAllocDefaults(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 4)
	id, err := e.Alloc()
	require.NoError(t, err)

	assert.Equal(t, StateStopped, e.State(id))
	assert.False(t, e.Looping(id))
	assert.Zero(t, e.Offset(id))
	assert.Nil(t, e.Samples(id))
	assert.Equal(t, DefaultParams(), e.Params(id))
	assert.Equal(t, 1, e.Voices())
}

func TestAllocLimit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 2)
	a, err := e.Alloc()
	require.NoError(t, err)
	_, err = e.Alloc()
	require.NoError(t, err)

	_, err = e.Alloc()
	require.ErrorIs(t, err, ErrNoVoice)

	_, err = e.Copy(a)
	require.ErrorIs(t, err, ErrNoVoice)

	e.Free(a)
	_, err = e.Alloc()
	require.NoError(t, err)
}

func TestStaleID(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	old, err := e.Alloc()
	require.NoError(t, err)
	e.Free(old)
	e.Free(old)

	cur, err := e.Alloc()
	require.NoError(t, err)
	require.NotEqual(t, old, cur)
	e.SetSamples(cur, constPCM(1000, 1, 100, 0.5))

	e.Play(old)
	e.SetLooping(old, true)
	e.Update(old, func(p *Params) { p.Volume = 1 })

	assert.Equal(t, StateStopped, e.State(cur))
	assert.False(t, e.Looping(cur))
	assert.Equal(t, float32(100), e.Params(cur).Volume)
	assert.Equal(t, StateStopped, e.State(old))
	assert.Nil(t, e.Samples(old))

	_, err = e.Copy(old)
	require.ErrorIs(t, err, ErrStaleVoice)

	assert.Equal(t, StateStopped, e.State(VoiceID(0)))
}

func TestPlayWithoutSamples(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()

	e.Play(id)
	assert.Equal(t, StateStopped, e.State(id))

	e.SetSamples(id, &PCM{SampleRate: 1000, Channels: 1})
	e.Play(id)
	assert.Equal(t, StateStopped, e.State(id))
}

func TestTransport(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()
	e.SetSamples(id, constPCM(1000, 1, 1000, 0.1))

	e.Pause(id)
	assert.Equal(t, StateStopped, e.State(id), "pause while stopped")

	e.Play(id)
	assert.Equal(t, StatePlaying, e.State(id))

	e.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, e.Offset(id))

	e.Pause(id)
	assert.Equal(t, StatePaused, e.State(id))
	e.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, e.Offset(id), "paused voices hold their offset")

	e.Play(id)
	assert.Equal(t, StatePlaying, e.State(id))
	assert.Equal(t, 100*time.Millisecond, e.Offset(id), "play resumes from pause")

	e.Play(id)
	assert.Zero(t, e.Offset(id), "play while playing restarts")

	e.Advance(30 * time.Millisecond)
	e.Stop(id)
	assert.Equal(t, StateStopped, e.State(id))
	assert.Zero(t, e.Offset(id))

	e.Stop(id)
	assert.Equal(t, StateStopped, e.State(id))
}

func TestEndOfSamples(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()
	e.SetSamples(id, constPCM(1000, 1, 100, 0.1))

	e.Play(id)
	e.Advance(250 * time.Millisecond)
	assert.Equal(t, StateStopped, e.State(id))
	assert.Zero(t, e.Offset(id))
}

func TestLooping(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()
	e.SetSamples(id, constPCM(1000, 1, 100, 0.1))
	e.SetLooping(id, true)
	require.True(t, e.Looping(id))

	e.Play(id)
	e.Advance(250 * time.Millisecond)
	assert.Equal(t, StatePlaying, e.State(id))
	assert.Equal(t, 50*time.Millisecond, e.Offset(id))

	for range 20 {
		e.Advance(100 * time.Millisecond)
		require.Equal(t, StatePlaying, e.State(id))
	}

	e.SetLooping(id, false)
	e.Advance(100 * time.Millisecond)
	assert.Equal(t, StateStopped, e.State(id))
}

func TestSetOffset(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()

	e.SetOffset(id, 40*time.Millisecond)
	assert.Zero(t, e.Offset(id), "no samples attached")

	e.SetSamples(id, constPCM(1000, 1, 100, 0.1))

	e.SetOffset(id, 5*time.Second)
	assert.Equal(t, 100*time.Millisecond, e.Offset(id))

	e.SetOffset(id, -time.Second)
	assert.Zero(t, e.Offset(id))

	e.SetOffset(id, 50*time.Millisecond)
	e.Play(id)
	assert.Equal(t, 50*time.Millisecond, e.Offset(id), "offset set while stopped is kept by play")
}

func TestSetSamplesClampsCursor(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()
	e.SetSamples(id, constPCM(1000, 1, 500, 0.1))
	e.Play(id)
	e.Advance(300 * time.Millisecond)

	e.SetSamples(id, constPCM(1000, 1, 100, 0.1))
	assert.Equal(t, StatePlaying, e.State(id))
	assert.Equal(t, 100*time.Millisecond, e.Offset(id))

	e.SetSamples(id, nil)
	assert.Equal(t, StateStopped, e.State(id))
	assert.Zero(t, e.Offset(id))
}

func TestCopy(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 2)
	src, _ := e.Alloc()
	pcm := constPCM(1000, 1, 100, 0.1)
	e.SetSamples(src, pcm)
	e.SetLooping(src, true)
	e.Update(src, func(p *Params) {
		p.Pitch = 1.5
		p.Position = Vec3{1, 2, 3}
	})
	e.Play(src)
	e.Advance(20 * time.Millisecond)

	dup, err := e.Copy(src)
	require.NoError(t, err)

	assert.Equal(t, e.Params(src), e.Params(dup))
	assert.True(t, e.Looping(dup))
	assert.Same(t, pcm, e.Samples(dup))
	assert.Equal(t, StateStopped, e.State(dup))
	assert.Zero(t, e.Offset(dup))

	e.Update(dup, func(p *Params) { p.Pitch = 3 })
	assert.Equal(t, float32(1.5), e.Params(src).Pitch)
}

func TestPitch(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()
	e.SetSamples(id, constPCM(1000, 1, 1000, 0.1))
	e.Update(id, func(p *Params) { p.Pitch = 2 })

	e.Play(id)
	e.Advance(100 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, e.Offset(id))
}

func TestRenderGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		params   func(p *Params)
		listener func(l *Listener)
		want     float32
	}{
		{name: "unity", channels: 1, want: 0.5},
		{name: "volume", channels: 1, params: func(p *Params) { p.Volume = 50 }, want: 0.25},
		{name: "listener volume", channels: 1, listener: func(l *Listener) { l.Volume = 20 }, want: 0.1},
		{name: "within min distance", channels: 1, params: func(p *Params) { p.Position = Vec3{0.5, 0, 0} }, want: 0.5},
		{name: "distance", channels: 1, params: func(p *Params) { p.Position = Vec3{3, 0, 0} }, want: 0.5 / 3},
		{name: "no attenuation", channels: 1, params: func(p *Params) {
			p.Position = Vec3{3, 0, 0}
			p.Attenuation = 0
		}, want: 0.5},
		{name: "at listener", channels: 1, params: func(p *Params) { p.Position = Vec3{0, 4, 0} },
			listener: func(l *Listener) { l.Position = Vec3{0, 4, 0} }, want: 0.5},
		{name: "relative ignores listener", channels: 1, params: func(p *Params) {
			p.Position = Vec3{3, 0, 0}
			p.Relative = true
		}, listener: func(l *Listener) { l.Position = Vec3{3, 0, 0} }, want: 0.5 / 3},
		{name: "stereo ignores distance", channels: 2, params: func(p *Params) { p.Position = Vec3{3, 0, 0} }, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t, 2, 1)
			id, _ := e.Alloc()
			e.SetSamples(id, constPCM(1000, tt.channels, 100, 0.5))
			if tt.params != nil {
				e.Update(id, tt.params)
			}
			if tt.listener != nil {
				e.UpdateListener(tt.listener)
			}
			e.Play(id)

			out := make([]float32, 16)
			require.Equal(t, 8, e.Render(out))
			for i, s := range out {
				assert.InDelta(t, tt.want, s, 1e-5, "sample %d", i)
			}
		})
	}
}

func TestRenderMixAndClamp(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 2)
	for range 2 {
		id, _ := e.Alloc()
		e.SetSamples(id, constPCM(1000, 1, 100, 0.75))
		e.Play(id)
	}

	out := make([]float32, 10)
	e.Render(out)
	for _, s := range out {
		assert.Equal(t, float32(1), s)
	}
}

func TestRenderIsolatesBadVoice(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name   string
		params func(p *Params)
	}{
		{name: "nan volume", params: func(p *Params) { p.Volume = nan }},
		{name: "inf volume", params: func(p *Params) { p.Volume = inf }},
		{name: "nan min distance", params: func(p *Params) {
			p.Position = Vec3{3, 0, 0}
			p.MinDistance = nan
		}},
		{name: "nan attenuation", params: func(p *Params) {
			p.Position = Vec3{3, 0, 0}
			p.Attenuation = nan
		}},
		{name: "inf position", params: func(p *Params) { p.Position = Vec3{inf, 0, 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t, 1, 2)
			good, _ := e.Alloc()
			e.SetSamples(good, constPCM(1000, 1, 100, 0.5))
			bad, _ := e.Alloc()
			e.SetSamples(bad, constPCM(1000, 1, 100, 0.5))
			e.Update(bad, tt.params)
			e.Play(good)
			e.Play(bad)

			out := make([]float32, 4)
			e.Render(out)
			assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, out)
			assert.Equal(t, StatePlaying, e.State(bad))
			assert.Equal(t, 4*time.Millisecond, e.Offset(bad))
		})
	}
}

func TestRenderNaNSamples(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 2)
	good, _ := e.Alloc()
	e.SetSamples(good, constPCM(1000, 1, 100, 0.25))
	bad, _ := e.Alloc()
	e.SetSamples(bad, constPCM(1000, 1, 100, float32(math.NaN())))
	e.Play(good)
	e.Play(bad)

	out := make([]float32, 4)
	e.Render(out)
	for _, s := range out {
		assert.False(t, math.IsNaN(float64(s)))
	}
}

// TestInvalidParams plays and mixes voices whose parameters are out of
// range. The values are kept as set and must never break the offset range
// or leak non-finite samples into the mix.
func TestInvalidParams(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name   string
		params func(p *Params)
	}{
		{name: "zero pitch", params: func(p *Params) { p.Pitch = 0 }},
		{name: "negative pitch", params: func(p *Params) { p.Pitch = -1.5 }},
		{name: "inf pitch", params: func(p *Params) { p.Pitch = inf }},
		{name: "negative inf pitch", params: func(p *Params) { p.Pitch = -inf }},
		{name: "nan pitch", params: func(p *Params) { p.Pitch = nan }},
		{name: "max pitch", params: func(p *Params) { p.Pitch = math.MaxFloat32 }},
		{name: "negative volume", params: func(p *Params) { p.Volume = -50 }},
		{name: "nan volume", params: func(p *Params) { p.Volume = nan }},
		{name: "negative attenuation", params: func(p *Params) {
			p.Position = Vec3{5, 0, 0}
			p.Attenuation = -1
		}},
		{name: "negative min distance", params: func(p *Params) {
			p.Position = Vec3{5, 0, 0}
			p.MinDistance = -2
		}},
		{name: "zero min distance", params: func(p *Params) { p.MinDistance = 0 }},
	}

	for _, tt := range tests {
		for _, loop := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/loop=%t", tt.name, loop), func(t *testing.T) {
				t.Parallel()

				e := newTestEngine(t, 2, 1)
				id, _ := e.Alloc()
				pcm := constPCM(1000, 1, 200, 0.5)
				e.SetSamples(id, pcm)
				e.SetLooping(id, loop)
				e.Update(id, tt.params)

				require.NotPanics(t, func() {
					e.Play(id)

					out := make([]float32, 64)
					for range 10 {
						e.Render(out)
						for i, s := range out {
							require.False(t, math.IsNaN(float64(s)) || math.IsInf(float64(s), 0), "sample %d is %v", i, s)
						}

						off := e.Offset(id)
						require.GreaterOrEqual(t, off, time.Duration(0))
						require.LessOrEqual(t, off, pcm.Duration())
					}
				})
			})
		}
	}
}

func TestRenderChannelMapping(t *testing.T) {
	t.Parallel()

	stereo := &PCM{Data: []float32{0.2, 0.6, 0.2, 0.6, 0.2, 0.6}, SampleRate: 1000, Channels: 2}

	mono := newTestEngine(t, 1, 1)
	id, _ := mono.Alloc()
	mono.SetSamples(id, stereo)
	mono.Play(id)

	out := make([]float32, 2)
	mono.Render(out)
	assert.InDelta(t, 0.4, out[0], 1e-6)

	quad := newTestEngine(t, 4, 1)
	id, _ = quad.Alloc()
	quad.SetSamples(id, stereo)
	quad.Play(id)

	out = make([]float32, 4)
	quad.Render(out)
	assert.InDeltaSlice(t, []float32{0.2, 0.6, 0.2, 0.6}, out, 1e-6)
}

func TestRenderStopsMidBuffer(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 1, 1)
	id, _ := e.Alloc()
	e.SetSamples(id, constPCM(1000, 1, 3, 0.5))
	e.Play(id)

	out := make([]float32, 6)
	assert.Equal(t, 6, e.Render(out))
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0, 0, 0}, out)
	assert.Equal(t, StateStopped, e.State(id))
}

func TestRenderPartialFrame(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2, 1)
	out := []float32{9, 9, 9, 9, 9}
	assert.Equal(t, 2, e.Render(out))
	assert.Equal(t, []float32{0, 0, 0, 0, 9}, out)
}

func TestConcurrentRender(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 2, 8)
	pcm := constPCM(1000, 1, 50, 0.1)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]float32, 64)
		for {
			select {
			case <-done:
				return
			default:
				e.Render(buf)
			}
		}
	}()

	for range 200 {
		id, err := e.Alloc()
		if errors.Is(err, ErrNoVoice) {
			continue
		}
		require.NoError(t, err)
		e.SetSamples(id, pcm)
		e.Play(id)
		e.Update(id, func(p *Params) { p.Volume = 50 })
		_ = e.State(id)
		e.Free(id)
	}

	close(done)
	wg.Wait()
	assert.Zero(t, e.Voices())
}

func TestVoiceIDString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "voice(3#7)", makeID(3, 7).String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "state(0x1)", State(1).String())
}

func TestPCMDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2*time.Second, constPCM(1000, 2, 2000, 0).Duration())

	var nilPCM *PCM
	assert.Zero(t, nilPCM.Frames())
	assert.Zero(t, nilPCM.Duration())
}

// TestPropertyOffsetInRange drives a voice with random operations and checks
// that its offset never leaves [0, duration] and stop always rewinds, for
// any pitch including non-finite ones.
func TestPropertyOffsetInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(Config{SampleRate: 1000, Channels: 1, MaxVoices: 1}, nil)
		id, err := e.Alloc()
		if err != nil {
			t.Fatal(err)
		}

		frames := rapid.IntRange(1, 500).Draw(t, "frames")
		pcm := constPCM(1000, 1, frames, 0.1)
		e.SetSamples(id, pcm)
		e.SetLooping(id, rapid.Bool().Draw(t, "loop"))
		pitch := rapid.OneOf(
			rapid.Float32Range(0.25, 4),
			rapid.Float32Range(-4, 0),
			rapid.SampledFrom([]float32{
				float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN()), math.MaxFloat32,
			}),
		).Draw(t, "pitch")
		e.Update(id, func(p *Params) { p.Pitch = pitch })

		ops := rapid.SliceOfN(rapid.IntRange(0, 4), 1, 50).Draw(t, "ops")
		for i, op := range ops {
			switch op {
			case 0:
				e.Play(id)
			case 1:
				e.Pause(id)
			case 2:
				e.Stop(id)
				if e.State(id) != StateStopped || e.Offset(id) != 0 {
					t.Fatalf("stop left %s at %s", e.State(id), e.Offset(id))
				}
			case 3:
				ms := rapid.IntRange(-100, 1000).Draw(t, "seek")
				e.SetOffset(id, time.Duration(ms)*time.Millisecond)
			case 4:
				ms := rapid.IntRange(0, 300).Draw(t, "advance")
				e.Advance(time.Duration(ms) * time.Millisecond)
			}

			off := e.Offset(id)
			if off < 0 || off > pcm.Duration() {
				t.Fatalf("op %d: offset %s outside [0, %s]", i, off, pcm.Duration())
			}
		}
	})
}
