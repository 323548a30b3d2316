package ocr

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func grayImage(w, h int, fill func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			g.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return g
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// stripes is white with every fifth row black: mean 204, std 102.
func stripes(w, h int) *image.Gray {
	return grayImage(w, h, func(_, y int) uint8 {
		if y%5 == 0 {
			return 0
		}
		return 255
	})
}

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name string
		img  *image.Gray
		want Mode
	}{
		{"flat gray is low contrast", grayImage(10, 10, func(_, _ int) uint8 { return 128 }), ModeAggressive},
		{"bright high contrast", stripes(10, 10), ModeMinimal},
		{"mid tones", grayImage(10, 10, func(x, _ int) uint8 {
			if x < 5 {
				return 90
			}
			return 190
		}), ModeStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMode(tt.img); got != tt.want {
				t.Errorf("DetectMode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeAuto {
		t.Errorf("empty mode = %q, %v", m, err)
	}
	if m, err := ParseMode(" Receipt "); err != nil || m != ModeReceipt {
		t.Errorf("receipt mode = %q, %v", m, err)
	}
	if _, err := ParseMode("sharpen"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestPreprocessFile_AutoResolvesAndScales(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "page-1.png", grayImage(12, 8, func(_, _ int) uint8 { return 120 }))
	out := t.TempDir()

	res, err := PreprocessFile(src, out, ModeAuto, DefaultQuality)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModeAggressive {
		t.Errorf("mode = %q, want aggressive", res.Mode)
	}
	if res.Original != (Dimensions{Width: 12, Height: 8}) {
		t.Errorf("original = %+v", res.Original)
	}
	if res.Processed != (Dimensions{Width: 24, Height: 16}) {
		t.Errorf("processed = %+v", res.Processed)
	}
	if res.OutputPath != filepath.Join(out, "processed_page-1.jpg") {
		t.Errorf("output path = %s", res.OutputPath)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Errorf("processed image not written: %v", err)
	}
	if len(res.Steps) == 0 {
		t.Error("expected steps")
	}
}

func TestPreprocessFile_ReceiptTriples(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "receipt.png", stripes(10, 10))

	res, err := PreprocessFile(src, dir, ModeReceipt, DefaultQuality)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != (Dimensions{Width: 30, Height: 30}) {
		t.Errorf("processed = %+v", res.Processed)
	}
	if res.Mode != ModeReceipt {
		t.Errorf("mode = %q", res.Mode)
	}
}

func TestPreprocessFile_EveryModeRuns(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "scan.png", stripes(16, 16))
	for _, m := range []Mode{ModeStandard, ModeAggressive, ModeMinimal, ModeReceipt} {
		res, err := PreprocessFile(src, dir, m, DefaultQuality)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if res.Mode != m {
			t.Errorf("%s: resolved to %q", m, res.Mode)
		}
	}
}

func TestPreprocessFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := PreprocessFile(filepath.Join(dir, "missing.png"), dir, ModeAuto, 95); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := PreprocessFile(bad, dir, ModeAuto, 95); err == nil {
		t.Error("expected error for undecodable file")
	}
}

func TestProcessedName(t *testing.T) {
	if got := ProcessedName("/tmp/x/page-3.png"); got != "processed_page-3.jpg" {
		t.Errorf("ProcessedName = %q", got)
	}
}
