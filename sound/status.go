// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"fmt"

	"github.com/ik5/audvoice/internal/mixer"
)

// Status is the playback state of a Sound.
type Status int

const (
	Stopped Status = iota
	Paused
	Playing
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Paused:
		return "Paused"
	case Playing:
		return "Playing"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// statusFromState maps an engine state code. Codes the engine should never
// report read as Stopped.
func statusFromState(st mixer.State) Status {
	switch st {
	case mixer.StatePlaying:
		return Playing
	case mixer.StatePaused:
		return Paused
	case mixer.StateStopped:
		return Stopped
	default:
		return Stopped
	}
}
