// SPDX-License-Identifier: EPL-2.0

package audvoice

import (
	"errors"
	"fmt"
	"os"

	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/formats/aiff"
	"github.com/ik5/audvoice/formats/mp3"
	"github.com/ik5/audvoice/formats/vorbis"
	"github.com/ik5/audvoice/formats/wav"
	"github.com/ik5/audvoice/sound"
)

// DefaultRegistry returns a registry with every bundled decoder, keyed by
// file extension.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})

	return r
}

// fileSource closes the underlying file together with the decoder.
type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.f.Close())
}

// Open decodes the file at path with the decoder registered for its
// extension. Decoders read lazily, so the file stays open until the
// returned source is closed.
func Open(reg *audio.Registry, path string) (audio.Source, error) {
	dec, err := reg.ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}

	return &fileSource{Source: src, f: f}, nil
}

// LoadFile decodes the whole file at path into a sound buffer.
func LoadFile(path string, opts ...sound.LoadOption) (*sound.Buffer, error) {
	src, err := Open(DefaultRegistry(), path)
	if err != nil {
		return nil, err
	}

	buf, err := sound.LoadBuffer(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}

	return buf, nil
}
