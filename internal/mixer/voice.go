// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ik5/audvoice/utils"
)

// State is the engine status code of a voice. The values follow the OpenAL
// source-state enumeration.
type State int32

const (
	StatePlaying State = 0x1012
	StatePaused  State = 0x1013
	StateStopped State = 0x1014
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%#x)", int32(s))
	}
}

// PCM is the sample data a voice reads. It is never copied or modified by
// the engine and must stay unchanged while attached.
type PCM struct {
	Data       []float32 // interleaved, [-1, 1]
	SampleRate int
	Channels   int
}

// Frames returns the number of whole frames in p.
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Data) / p.Channels
}

// Duration returns the playing time of p at its own rate.
func (p *PCM) Duration() time.Duration {
	if p.Frames() == 0 || p.SampleRate <= 0 {
		return 0
	}
	return frameDuration(float64(p.Frames()), p.SampleRate)
}

func frameDuration(frames float64, rate int) time.Duration {
	return time.Duration(math.Round(frames / float64(rate) * float64(time.Second)))
}

// Vec3 is a point in listener space.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) length() float64 {
	return math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z))
}

// Params are the per-voice output parameters. No range checks are applied.
type Params struct {
	Pitch       float32 // playback speed multiplier
	Volume      float32 // 0-100
	Position    Vec3
	Relative    bool // Position is relative to the listener
	MinDistance float32
	Attenuation float32
}

// DefaultParams are the parameters of a freshly allocated voice.
func DefaultParams() Params {
	return Params{
		Pitch:       1,
		Volume:      100,
		MinDistance: 1,
		Attenuation: 1,
	}
}

// Listener is the single point every voice is heard from.
type Listener struct {
	Volume   float32 // 0-100, applied to every voice
	Position Vec3
}

func defaultListener() Listener { return Listener{Volume: 100} }

type voiceParams struct {
	Params
	loop bool
}

type voice struct {
	label  string // stable name for logs
	state  State
	pcm    *PCM
	cursor float64 // in source frames, within [0, frames]
	params voiceParams
}

func newVoice() *voice {
	return &voice{
		label:  uuid.NewString(),
		state:  StateStopped,
		params: voiceParams{Params: DefaultParams()},
	}
}

func (v *voice) frames() int { return v.pcm.Frames() }

// play starts from the cursor when stopped, resumes when paused and
// restarts when already playing. Without samples the voice stays stopped.
func (v *voice) play() {
	if v.frames() == 0 {
		v.stop()
		return
	}

	if v.state == StatePlaying {
		v.cursor = 0
	}
	v.state = StatePlaying
}

func (v *voice) pause() {
	if v.state == StatePlaying {
		v.state = StatePaused
	}
}

func (v *voice) stop() {
	v.state = StateStopped
	v.cursor = 0
}

func (v *voice) attach(pcm *PCM) {
	v.pcm = pcm

	n := v.frames()
	if n == 0 {
		v.stop()
		return
	}
	v.cursor = min(v.cursor, float64(n))
}

func (v *voice) offset() time.Duration {
	if v.frames() == 0 || v.pcm.SampleRate <= 0 {
		return 0
	}
	return frameDuration(v.cursor, v.pcm.SampleRate)
}

// seek moves the cursor, clamped to the attached samples.
func (v *voice) seek(d time.Duration) {
	n := v.frames()
	if n == 0 || v.pcm.SampleRate <= 0 {
		v.cursor = 0
		return
	}

	pos := d.Seconds() * float64(v.pcm.SampleRate)
	v.cursor = math.Max(0, math.Min(pos, float64(n)))
}

// advance moves the cursor by step frames. At either end of the samples it
// wraps when looping and otherwise stops the voice, reporting false. A
// cursor that is no longer finite has no position to wrap to and stops too.
func (v *voice) advance(step float64) bool {
	n := float64(v.frames())
	v.cursor += step

	if v.cursor >= 0 && v.cursor < n {
		return true
	}

	if !v.params.loop || n == 0 || math.IsNaN(v.cursor) || math.IsInf(v.cursor, 0) {
		v.stop()
		return false
	}

	v.cursor = math.Mod(v.cursor, n)
	if v.cursor < 0 {
		v.cursor += n
	}

	return true
}

// sample interpolates the frame under the cursor into dst, mapping source
// channels onto len(dst) output channels.
func (v *voice) sample(dst []float32) {
	n := v.frames()
	srcCh := v.pcm.Channels

	if v.cursor >= float64(n) {
		clear(dst)
		return
	}

	base := int(v.cursor)
	x := float32(v.cursor - float64(base))

	at := func(frame, c int) float32 {
		if v.params.loop {
			frame = ((frame % n) + n) % n
		} else {
			frame = max(0, min(frame, n-1))
		}
		return v.pcm.Data[frame*srcCh+c]
	}
	read := func(c int) float32 {
		if x == 0 {
			return at(base, c)
		}
		return utils.CubicInterpolate(at(base-1, c), at(base, c), at(base+1, c), at(base+2, c), x)
	}

	if len(dst) == 1 && srcCh > 1 {
		var sum float32
		for c := range srcCh {
			sum += read(c)
		}
		dst[0] = sum / float32(srcCh)
		return
	}

	for c := range dst {
		dst[c] = read(c % srcCh)
	}
}

// gain combines voice volume, listener volume and, for mono samples, the
// inverse-distance-clamped falloff used by OpenAL.
func (v *voice) gain(l Listener) float32 {
	g := v.params.Volume / 100 * l.Volume / 100
	if v.pcm.Channels != 1 {
		return g
	}

	pos := v.params.Position
	if !v.params.Relative {
		pos = pos.sub(l.Position)
	}

	minDist := float64(v.params.MinDistance)
	dist := math.Max(pos.length(), minDist)
	denom := minDist + float64(v.params.Attenuation)*(dist-minDist)
	if denom <= 0 {
		return g
	}

	return g * float32(minDist/denom)
}

// finite reports whether x is neither NaN nor infinite.
func finite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
