package ocr

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

// emptyIFDs builds a little-endian TIFF whose directories have no entries
// and chain to each other; next[i] is the offset stored after directory i.
func emptyIFDs(next ...uint32) []byte {
	var b bytes.Buffer
	b.WriteString("II")
	binary.Write(&b, binary.LittleEndian, uint16(42))
	binary.Write(&b, binary.LittleEndian, uint32(8))
	for _, n := range next {
		binary.Write(&b, binary.LittleEndian, uint16(0))
		binary.Write(&b, binary.LittleEndian, n)
	}
	return b.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTIFFFrames_CountsDirectoryChain(t *testing.T) {
	// Directories are 6 bytes each: at 8, 14 and 20.
	n, err := TIFFFrames(writeTemp(t, "three.tif", emptyIFDs(14, 20, 0)))
	if err != nil || n != 3 {
		t.Errorf("frames = %d, %v; want 3", n, err)
	}
}

func TestTIFFFrames_SingleFrameFromEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	n, err := TIFFFrames(writeTemp(t, "one.tiff", buf.Bytes()))
	if err != nil || n != 1 {
		t.Errorf("frames = %d, %v; want 1", n, err)
	}
}

func TestTIFFFrames_NonTIFFIsOneFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	n, err := TIFFFrames(writeTemp(t, "page.png", buf.Bytes()))
	if err != nil || n != 1 {
		t.Errorf("frames = %d, %v; want 1", n, err)
	}
}

func TestTIFFFrames_LoopIsError(t *testing.T) {
	if _, err := TIFFFrames(writeTemp(t, "loop.tif", emptyIFDs(8))); err == nil {
		t.Error("expected error for a self-referencing directory")
	}
}
