// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ik5/audvoice/internal/mixer"
)

// Sound is a playback handle for one buffer on one voice of a Device.
// Create it with Device.NewSound, Device.NewSoundWithBuffer or the package
// level helpers, and release it with Close.
type Sound struct {
	v       *voice
	cleanup runtime.Cleanup
}

var _ Source = (*Sound)(nil)

// voice is the part of a Sound the runtime cleanup may reach.
type voice struct {
	dev *Device
	id  mixer.VoiceID

	mu     sync.Mutex
	buf    *Buffer
	closed bool
}

// release frees the engine voice and detaches the buffer. It reports
// whether this call did the release.
func (v *voice) release() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	v.closed = true

	v.dev.engine.Free(v.id)
	if v.buf != nil {
		v.buf.detach()
		v.buf = nil
	}

	return true
}

// Close stops the sound and returns its voice to the device. The attached
// buffer, if any, is only detached. Close always returns nil.
func (s *Sound) Close() error {
	s.cleanup.Stop()
	s.v.release()

	return nil
}

// SetBuffer attaches buf without copying it, or detaches when buf is nil.
// Playback is not interrupted; the offset is clamped to the new buffer.
// Detaching stops the sound.
func (s *Sound) SetBuffer(buf *Buffer) {
	v := s.v
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	var pcm *mixer.PCM
	if buf != nil {
		pcm = buf.attach()
	}
	if v.buf != nil {
		v.buf.detach()
	}
	v.buf = buf

	v.dev.engine.SetSamples(v.id, pcm)
}

// Buffer returns the attached buffer or nil.
func (s *Sound) Buffer() *Buffer {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()

	return s.v.buf
}

// Clone returns a new sound with the same parameters, looping flag and
// buffer. The clone is stopped at offset zero. Cloning a closed sound
// returns a fresh sound. Clone panics when the device has no free voice.
func (s *Sound) Clone() *Sound {
	v := s.v
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return v.dev.NewSound()
	}

	id, err := v.dev.engine.Copy(v.id)
	if err != nil {
		panic(fmt.Errorf("sound: clone: %w", err))
	}

	nv := &voice{dev: v.dev, id: id, buf: v.buf}
	if nv.buf != nil {
		nv.buf.attach()
	}

	return v.dev.wrap(nv)
}

// Play starts or resumes playback. A stopped sound starts at its offset,
// which is zero unless SetPlayingOffset was called while stopped. A paused
// sound resumes. A playing sound restarts from the beginning. Without a
// non-empty buffer the sound stays Stopped.
func (s *Sound) Play() { s.engine().Play(s.v.id) }

// Pause freezes a playing sound at its current offset. It has no effect
// otherwise.
func (s *Sound) Pause() { s.engine().Pause(s.v.id) }

// Stop halts playback and rewinds to the beginning.
func (s *Sound) Stop() { s.engine().Stop(s.v.id) }

// Status reports whether the sound is stopped, paused or playing.
func (s *Sound) Status() Status { return statusFromState(s.engine().State(s.v.id)) }

// SetLooping makes playback wrap to the beginning at the end of the buffer.
func (s *Sound) SetLooping(loop bool) { s.engine().SetLooping(s.v.id, loop) }

// IsLooping reports whether playback wraps at the end of the buffer.
func (s *Sound) IsLooping() bool { return s.engine().Looping(s.v.id) }

// PlayingOffset is the read position from the start of the buffer.
func (s *Sound) PlayingOffset() time.Duration { return s.engine().Offset(s.v.id) }

// SetPlayingOffset seeks, clamped to the buffer duration. Without a buffer
// the offset stays zero.
func (s *Sound) SetPlayingOffset(offset time.Duration) { s.engine().SetOffset(s.v.id, offset) }

func (s *Sound) engine() *mixer.Engine { return s.v.dev.engine }

func (s *Sound) params() mixer.Params { return s.engine().Params(s.v.id) }

func (s *Sound) update(fn func(p *mixer.Params)) { s.engine().Update(s.v.id, fn) }

// SetPitch sets the playback speed factor. 1 is the recorded speed.
func (s *Sound) SetPitch(pitch float32) { s.update(func(p *mixer.Params) { p.Pitch = pitch }) }

// Pitch returns the playback speed factor.
func (s *Sound) Pitch() float32 { return s.params().Pitch }

// SetVolume sets the volume, where 100 is full scale.
func (s *Sound) SetVolume(volume float32) { s.update(func(p *mixer.Params) { p.Volume = volume }) }

// Volume returns the volume.
func (s *Sound) Volume() float32 { return s.params().Volume }

// SetPosition places the sound in the scene.
func (s *Sound) SetPosition(pos Vector3f) {
	s.update(func(p *mixer.Params) { p.Position = pos.vec() })
}

// SetPosition3 is SetPosition with separate coordinates.
func (s *Sound) SetPosition3(x, y, z float32) { s.SetPosition(Vector3f{X: x, Y: y, Z: z}) }

// Position returns the position in the scene.
func (s *Sound) Position() Vector3f { return vectorOf(s.params().Position) }

// SetRelativeToListener makes the position relative to the listener
// instead of absolute.
func (s *Sound) SetRelativeToListener(relative bool) {
	s.update(func(p *mixer.Params) { p.Relative = relative })
}

// IsRelativeToListener reports whether the position is listener relative.
func (s *Sound) IsRelativeToListener() bool { return s.params().Relative }

// SetMinDistance sets the distance under which the sound plays at full
// volume.
func (s *Sound) SetMinDistance(distance float32) {
	s.update(func(p *mixer.Params) { p.MinDistance = distance })
}

// MinDistance returns the full volume distance.
func (s *Sound) MinDistance() float32 { return s.params().MinDistance }

// SetAttenuation sets how fast the volume falls off past the minimum
// distance. 0 disables the falloff.
func (s *Sound) SetAttenuation(attenuation float32) {
	s.update(func(p *mixer.Params) { p.Attenuation = attenuation })
}

// Attenuation returns the falloff factor.
func (s *Sound) Attenuation() float32 { return s.params().Attenuation }
