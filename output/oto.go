// SPDX-License-Identifier: EPL-2.0

package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/audvoice/internal/log"
)

// Oto plays a Renderer on the system audio device through oto.
// oto allows one context per process, so only one Oto may be open.
type Oto struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewOto opens the audio device at the renderer's rate and channel count
// and starts pulling frames from it.
func NewOto(r Renderer) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   r.SampleRate(),
		ChannelCount: r.Channels(),
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(newPCMReader(r))
	player.Play()

	log.Info("audio output opened", "driver", "oto", "sample_rate", r.SampleRate(), "channels", r.Channels())

	return &Oto{ctx: ctx, player: player}, nil
}

// Close stops the player and suspends the device.
func (o *Oto) Close() error {
	var errs []error

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing player: %w", err))
		}
		o.player = nil
	}
	if o.ctx != nil {
		if err := o.ctx.Suspend(); err != nil {
			errs = append(errs, fmt.Errorf("suspending context: %w", err))
		}
	}

	return errors.Join(errs...)
}
