// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	ErrNoVoice    = errors.New("no free voice")
	ErrStaleVoice = errors.New("voice was freed")
)
