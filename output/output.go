// SPDX-License-Identifier: EPL-2.0

// Package output drives a sound device in real time.
//
// A driver pulls interleaved float32 frames from a Renderer, normally a
// *sound.Device, for as long as it is open:
//
//	out, err := output.Open("oto", sound.Default())
//	if err != nil {
//	    return err
//	}
//	defer out.Close()
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ik5/audvoice/utils"
)

// ErrUnknownOutput is returned by Open for an unsupported driver name.
var ErrUnknownOutput = errors.New("output: unknown output")

// Renderer produces interleaved float32 frames on demand.
type Renderer interface {
	// Render fills dst with len(dst)/Channels() frames and returns that
	// count.
	Render(dst []float32) int
	SampleRate() int
	Channels() int
}

// Output is an open driver.
type Output interface {
	Close() error
}

// DefaultPeriod is the render interval of a Null output created by Open.
const DefaultPeriod = 10 * time.Millisecond

// Open starts the driver named kind ("oto" or "null") on r.
func Open(kind string, r Renderer) (Output, error) {
	switch strings.ToLower(kind) {
	case "oto":
		return NewOto(r)
	case "null":
		return NewNull(r, DefaultPeriod), nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownOutput)
	}
}

// pcmReader exposes a Renderer as little-endian signed 16-bit PCM.
type pcmReader struct {
	r   Renderer
	buf []float32
}

func newPCMReader(r Renderer) *pcmReader {
	return &pcmReader{r: r}
}

// Read renders as many whole frames as fit in b. A device with nothing
// playing yields silence. A b shorter than one frame fails with
// io.ErrShortBuffer.
func (p *pcmReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	ch := p.r.Channels()
	frames := len(b) / (2 * ch)
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	n := frames * ch
	if cap(p.buf) < n {
		p.buf = make([]float32, n)
	}
	samples := p.buf[:n]
	p.r.Render(samples)

	return utils.PutInt16LE(b, samples), nil
}
