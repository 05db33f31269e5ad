// SPDX-License-Identifier: EPL-2.0

package utils

// FullScale returns the divisor that maps a signed integer sample of the
// given bit depth onto [-1, 1). Unknown depths fall back to 16-bit.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
