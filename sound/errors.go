// SPDX-License-Identifier: EPL-2.0

package sound

import "errors"

var (
	// ErrBufferInUse is returned by Buffer.Release while sounds are attached.
	ErrBufferInUse = errors.New("sound: buffer is attached to a sound")

	// ErrInvalidFormat reports unusable buffer metadata.
	ErrInvalidFormat = errors.New("sound: invalid buffer format")
)
