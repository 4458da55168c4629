// Package textutil decides whether blob content is text and counts its lines.
package textutil

import (
	"bytes"
	"unicode/utf8"

	"github.com/src-d/enry/v2"
)

// IsBinary returns true if data contains a null byte within the first
// 8000 bytes, the heuristic used by git and most editors. Empty data is not binary.
// DecodeLines applies it before UTF-8 validation, so valid UTF-8 holding a NUL
// byte is treated as binary, as git does.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	return enry.IsBinary(data)
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
// Returns 0 for empty data.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// DecodeLines decodes data as UTF-8 text and returns its line count.
// ok is false when data is binary or not valid UTF-8; that outcome is not an error.
func DecodeLines(data []byte) (lines int, ok bool) {
	if IsBinary(data) || !utf8.Valid(data) {
		return 0, false
	}

	return CountLines(data), true
}
