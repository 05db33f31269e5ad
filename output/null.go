// SPDX-License-Identifier: EPL-2.0

package output

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/audvoice/internal/log"
)

// Null renders a Renderer in real time and discards the result. It keeps
// sounds advancing on hosts without an audio device.
type Null struct {
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	frames atomic.Int64
}

// NewNull starts rendering r every period.
func NewNull(r Renderer, period time.Duration) *Null {
	if period <= 0 {
		period = DefaultPeriod
	}

	n := &Null{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go n.run(r, period)

	log.Debug("audio output opened", "driver", "null", "period", period)

	return n
}

func (n *Null) run(r Renderer, period time.Duration) {
	defer close(n.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	ch := r.Channels()
	p := newPacer(time.Now(), r.SampleRate(), period)
	var buf []float32

	for {
		select {
		case <-n.stop:
			return
		case now := <-ticker.C:
			due := p.due(now, n.frames.Load())
			if due <= 0 {
				continue
			}

			if need := due * ch; cap(buf) < need {
				buf = make([]float32, need)
			}
			n.frames.Add(int64(r.Render(buf[:due*ch])))
		}
	}
}

// maxLagPeriods bounds how many periods one tick may catch up on.
const maxLagPeriods = 4

// pacer tracks how far rendering lags the wall clock.
type pacer struct {
	start time.Time
	base  int64
	rate  float64
	limit int64
}

func newPacer(start time.Time, rate int, period time.Duration) *pacer {
	return &pacer{
		start: start,
		rate:  float64(rate),
		limit: max(1, int64(period.Seconds()*float64(rate)*maxLagPeriods)),
	}
}

// due returns the frames to render at now given the frames rendered so
// far. A lag beyond the limit, after a suspend for example, is dropped
// and the clock re-based so the gap is never rendered.
func (p *pacer) due(now time.Time, rendered int64) int {
	due := int64(now.Sub(p.start).Seconds()*p.rate) - (rendered - p.base)
	if due > p.limit {
		p.start = now.Add(-time.Duration(float64(p.limit) / p.rate * float64(time.Second)))
		p.base = rendered
		due = p.limit
	}

	return int(due)
}

// Frames returns the number of frames rendered so far.
func (n *Null) Frames() int64 { return n.frames.Load() }

// Close stops rendering and waits for the render goroutine to exit.
func (n *Null) Close() error {
	n.once.Do(func() { close(n.stop) })
	<-n.done

	return nil
}
