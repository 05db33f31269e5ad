// SPDX-License-Identifier: EPL-2.0

// Package sound plays in-memory sample buffers through a mixing device.
//
// A Sound is a playback handle bound to one voice of a Device. It exposes
// transport controls (Play, Pause, Stop), looping, seeking, a status query
// and the spatial parameters of the Source interface. Playback never blocks
// the caller: Play only changes the voice state, and samples are consumed
// whenever the device is rendered, usually by a driver from package output.
//
// # Buffers
//
// A Buffer holds immutable decoded samples and may be attached to any
// number of sounds at once. Attaching never copies the samples. A buffer
// counts its attachments and refuses Release while any sound still uses it:
//
//	buf, _ := sound.LoadBuffer(src)
//	snd := sound.NewSoundWithBuffer(buf)
//	snd.Play()
//	...
//	snd.Close()
//	_ = buf.Release()
//
// # Lifetime
//
// Every Sound claims a voice until Close is called. Close is idempotent and
// every method of a closed Sound is a no-op returning zero values. A Sound
// that becomes unreachable without Close still has its voice returned by a
// runtime cleanup, but at an unspecified time.
//
// Creating a Sound, with or without a buffer, and cloning one panic with an
// error wrapping mixer.ErrNoVoice when the device has no free voice left.
//
// # Concurrency
//
// Devices are safe for concurrent use. A single Sound may be read from many
// goroutines, but mutations should come from one goroutine at a time.
package sound
