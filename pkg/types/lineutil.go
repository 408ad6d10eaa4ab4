package types

import "bytes"

// ComputeLineColumn converts a byte offset into content into a 1-indexed
// (line, column) pair, the way a text editor would report a cursor
// position. An offset past the end of content is clamped to content's
// length, so a full-match span's end offset is always a valid position.
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	if byteOffset > len(content) {
		byteOffset = len(content)
	}
	upTo := content[:byteOffset]

	line = bytes.Count(upTo, []byte{'\n'}) + 1
	if idx := bytes.LastIndexByte(upTo, '\n'); idx >= 0 {
		column = byteOffset - idx
	} else {
		column = byteOffset + 1
	}
	return line, column
}
