// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes WAV files.
//
// Decoding goes through github.com/go-audio/wav, so any chunk layout is
// accepted (LIST, fact, padding). Integer PCM at 8, 16, 24 and 32 bits is
// supported; 8-bit data is treated as unsigned, as the format requires.
//
//	src, err := wav.Decoder{}.Decode(file)
//
// Two writers are provided. WritePCM16 streams to any io.Writer with a
// precomputed header. Encode needs an io.WriteSeeker and uses the go-audio
// encoder:
//
//	f, _ := os.Create("out.wav")
//	err := wav.Encode(f, 44100, 2, samples)
package wav
