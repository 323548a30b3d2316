package ocr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxTIFFFrames bounds the directory walk on corrupt files.
const maxTIFFFrames = 10000

// TIFFFrames counts the image directories (pages) in a classic TIFF file.
// The decoder only ever reads the first one. Input that is not a classic
// TIFF reports a single frame.
func TIFFFrames(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var hdr [8]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 1, nil
		}
		return 0, err
	}
	var bo binary.ByteOrder
	switch string(hdr[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return 1, nil
	}
	// 43 is BigTIFF, which the decoder rejects anyway.
	if bo.Uint16(hdr[2:4]) != 42 {
		return 1, nil
	}

	frames := 0
	seen := map[int64]bool{}
	for off := int64(bo.Uint32(hdr[4:8])); off != 0; frames++ {
		if seen[off] || frames == maxTIFFFrames {
			return 0, errors.New("tiff: directory chain loops")
		}
		seen[off] = true

		var count [2]byte
		if _, err := f.ReadAt(count[:], off); err != nil {
			return 0, fmt.Errorf("tiff: read directory: %w", err)
		}
		var next [4]byte
		if _, err := f.ReadAt(next[:], off+2+int64(bo.Uint16(count[:]))*12); err != nil {
			return 0, fmt.Errorf("tiff: read next directory offset: %w", err)
		}
		off = int64(bo.Uint32(next[:]))
	}
	return frames, nil
}
