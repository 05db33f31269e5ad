// SPDX-License-Identifier: EPL-2.0

// Package audvoice plays decoded audio through lightweight sound handles.
//
// The work is split across subpackages:
//   - sound: Sound handles, shared sample Buffers, the mixing Device and its Listener
//   - output: drivers that render a Device to speakers (oto) or in real time to nowhere (null)
//   - audio: the decoded stream pipeline (Source, Resampler, MonoMixer, decoder Registry)
//   - formats/wav, formats/mp3, formats/vorbis, formats/aiff: decoders
//
// # Supported Formats
//
//   - WAV (8, 16, 24 and 32-bit PCM) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF via formats/aiff
//
// # Quick Start
//
// Load a file into a buffer, attach it to a sound and start an output:
//
//	buf, err := audvoice.LoadFile("click.wav")
//	if err != nil {
//	    return err
//	}
//
//	out, err := output.Open("oto", sound.Default())
//	if err != nil {
//	    return err
//	}
//	defer out.Close()
//
//	snd := sound.NewSoundWithBuffer(buf)
//	defer snd.Close()
//	snd.Play()
//
// Sounds never block: Play returns at once and the output goroutine
// advances every playing sound of the device.
//
// # Preparing Buffers
//
// LoadFile accepts the sound.LoadOption values, so buffers can be converted
// while loading:
//
//	buf, err := audvoice.LoadFile("voice.mp3", sound.WithMono(), sound.WithSampleRate(44100))
//
// Only mono buffers are attenuated by distance from the listener.
package audvoice
