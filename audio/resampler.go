// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audvoice/utils"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation. Works on interleaved samples and preserves channel count.
// A one-pole low-pass is applied to the input when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames per output frame
	channels int

	// window holds frames t-1, t0, t+1, t+2 around pos.
	window [4][]float32
	real   [4]bool
	pos    float64
	primed bool

	block    []float32
	blockLen int
	blockPos int
	srcDone  bool

	lowpass  []float32
	lpPrimed bool
	alpha    float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := max(src.Channels(), 1)
	step := float64(src.SampleRate()) / float64(dstRate)

	frames := max(src.BufSize()/channels, 256)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     step,
		channels: channels,
		block:    make([]float32, frames*channels),
	}
	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	if step > 1 {
		r.lowpass = make([]float32, channels)
		r.alpha = 0.5
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// pull copies the next source frame into dst. It reports false once the
// source is exhausted, leaving dst untouched.
func (r *Resampler) pull(dst []float32) (bool, error) {
	stalls := 0
	for r.blockPos+r.channels > r.blockLen {
		if r.srcDone {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.block)
		r.blockLen = n - n%r.channels
		r.blockPos = 0

		if err == io.EOF {
			r.srcDone = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}

		if n == 0 && !r.srcDone {
			stalls++
			if stalls > maxStalls {
				return false, io.ErrNoProgress
			}
		}
	}

	copy(dst, r.block[r.blockPos:r.blockPos+r.channels])
	r.blockPos += r.channels

	if r.lowpass != nil {
		if !r.lpPrimed {
			copy(r.lowpass, dst)
			r.lpPrimed = true
		}
		for c := range dst {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.lowpass[c]
			r.lowpass[c] = dst[c]
		}
	}

	return true, nil
}

// advance shifts the window by one frame and loads a new t+2 frame,
// repeating the last frame once the source is exhausted.
func (r *Resampler) advance() error {
	last := r.window[0]
	copy(r.window[:], r.window[1:])
	copy(r.real[:], r.real[1:])

	r.window[3] = last
	copy(r.window[3], r.window[2])

	ok, err := r.pull(r.window[3])
	r.real[3] = ok

	return err
}

func (r *Resampler) prime() error {
	ok, err := r.pull(r.window[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}

	copy(r.window[0], r.window[1])
	r.real[0], r.real[1] = true, true

	for i := 2; i < 4; i++ {
		copy(r.window[i], r.window[i-1])
		ok, err := r.pull(r.window[i])
		if err != nil {
			return err
		}
		r.real[i] = ok
	}

	r.primed = true

	return nil
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	frames := len(dst) / r.channels

	for written < frames {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		// the final real frame is emitted only on an exact hit
		if !r.real[1] || (!r.real[2] && r.pos > 0) {
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.window[0][c], r.window[1][c], r.window[2][c], r.window[3][c], x)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
