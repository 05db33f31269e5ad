// SPDX-License-Identifier: EPL-2.0

// Package audio is the decoded stream pipeline that feeds sound buffers.
//
// Every decoder in formats/* returns a Source: a pull-based stream of
// interleaved float32 samples in [-1, 1]. Sources compose, so a decoded file
// can be reshaped before it is loaded into memory:
//
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	mono := audio.NewMonoMixer(src)
//	at44k := audio.NewResampler(mono, 44100)
//	samples, err := audio.ReadAll(at44k)
//
// sound.LoadBuffer builds the same chain from its options.
//
// # Resampling
//
// Resampler converts between rates with cubic interpolation over a four
// frame window. When downsampling it runs a one-pole low-pass over the input
// first to keep aliasing down.
//
// # Channel Mixing
//
// MonoMixer averages every frame down to one channel. Only mono buffers are
// attenuated by distance when played.
//
// # Format Registry
//
// A Registry maps case-insensitive keys, usually file extensions, to
// decoders:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	dec, err := reg.ForPath("intro.WAV")
//
// # End of Stream
//
// ReadSamples returns io.EOF once a source is drained, possibly together
// with a final batch of samples. ReadAll hides that and reports only real
// failures, or io.ErrNoProgress for a source that keeps returning nothing.
package audio
