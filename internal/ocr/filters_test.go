package ocr

import (
	"image"
	"testing"
)

func countWhite(g *image.Gray) int {
	n := 0
	for _, p := range g.Pix {
		if p == 255 {
			n++
		}
	}
	return n
}

func TestOtsu_Bimodal(t *testing.T) {
	g := grayImage(10, 10, func(x, _ int) uint8 {
		if x < 5 {
			return 50
		}
		return 200
	})
	th := otsu(g)
	if th < 50 || th >= 200 {
		t.Fatalf("threshold %d does not split the classes", th)
	}
	if got := countWhite(threshold(g, th)); got != 50 {
		t.Errorf("white pixels = %d, want 50", got)
	}
}

func TestMorph_DilateAndOpen(t *testing.T) {
	dot := grayImage(7, 7, func(x, y int) uint8 {
		if x == 3 && y == 3 {
			return 255
		}
		return 0
	})
	if got := countWhite(dilate(dot, 3, 1)); got != 9 {
		t.Errorf("dilated white = %d, want 9", got)
	}
	if got := countWhite(open(dot, 2)); got != 0 {
		t.Errorf("opening left %d white pixels, want 0", got)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd(stripes(10, 10))
	if mean != 204 {
		t.Errorf("mean = %v, want 204", mean)
	}
	if std < 101.9 || std > 102.1 {
		t.Errorf("std = %v, want 102", std)
	}
}

func TestMedian3_RemovesSaltNoise(t *testing.T) {
	g := grayImage(5, 5, func(x, y int) uint8 {
		if x == 2 && y == 2 {
			return 255
		}
		return 10
	})
	if got := median3(g).GrayAt(2, 2).Y; got != 10 {
		t.Errorf("median at noise pixel = %d, want 10", got)
	}
}

func TestCLAHE_SmallImage(t *testing.T) {
	g := grayImage(3, 2, func(x, y int) uint8 { return uint8(40 * (x + y)) })
	out := clahe(g, 2.0, 8)
	if out.Rect != g.Rect {
		t.Errorf("size changed: %v -> %v", g.Rect, out.Rect)
	}
}

func TestGaussianBlur_FlatImageUnchanged(t *testing.T) {
	g := grayImage(6, 6, func(_, _ int) uint8 { return 77 })
	out := gaussianBlur(g, 5)
	for _, p := range out.Pix {
		if p != 77 {
			t.Fatalf("blur changed flat value to %d", p)
		}
	}
}
