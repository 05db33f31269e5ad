// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 16-bit PCM AIFF through github.com/go-audio/aiff.
//
// go-audio requires an io.ReadSeeker; other readers are buffered in memory
// first.
package aiff
