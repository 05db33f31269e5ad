// SPDX-License-Identifier: EPL-2.0

package sound

import "github.com/ik5/audvoice/internal/mixer"

// Vector3f is a position in listener space.
type Vector3f struct {
	X, Y, Z float32
}

func (v Vector3f) vec() mixer.Vec3 { return mixer.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

func vectorOf(v mixer.Vec3) Vector3f { return Vector3f{X: v.X, Y: v.Y, Z: v.Z} }

// Source is the set of spatial and output parameters shared by playable
// types. Values are stored as given; nothing is range checked.
type Source interface {
	// SetPitch sets the playback speed multiplier. 1 is the recorded speed.
	SetPitch(pitch float32)
	Pitch() float32

	// SetVolume sets the gain in the range 0 to 100.
	SetVolume(volume float32)
	Volume() float32

	SetPosition(pos Vector3f)
	SetPosition3(x, y, z float32)
	Position() Vector3f

	// SetRelativeToListener makes the position relative to the listener
	// rather than absolute.
	SetRelativeToListener(relative bool)
	IsRelativeToListener() bool

	// SetMinDistance sets the distance below which the sound is heard at
	// full volume.
	SetMinDistance(distance float32)
	MinDistance() float32

	// SetAttenuation sets how fast the sound fades beyond the minimum
	// distance. 0 disables the fade.
	SetAttenuation(attenuation float32)
	Attenuation() float32
}
