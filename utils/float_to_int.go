// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// Float32ToInt16 clamps x to [-1, 1] and scales it to a signed 16-bit sample.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1.0 from overflowing
	return int16(x * 32767.0)
}

// PutInt16LE writes src as little-endian signed 16-bit PCM into dst and
// returns the number of bytes written. dst must hold 2 bytes per sample;
// extra samples are ignored.
func PutInt16LE(dst []byte, src []float32) int {
	n := min(len(src), len(dst)/2)
	for i := range n {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(Float32ToInt16(src[i])))
	}

	return n * 2
}
