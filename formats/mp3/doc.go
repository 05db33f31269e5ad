// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
// The decoder always reports two channels; mono files are duplicated by
// go-mp3 itself.
package mp3
