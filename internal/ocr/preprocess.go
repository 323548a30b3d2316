package ocr

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Mode selects a preprocessing recipe.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeStandard   Mode = "standard"
	ModeAggressive Mode = "aggressive"
	ModeMinimal    Mode = "minimal"
	ModeReceipt    Mode = "receipt"
)

// DefaultQuality is the JPEG quality of processed images.
const DefaultQuality = 95

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeStandard, ModeAggressive, ModeMinimal, ModeReceipt:
		return m, nil
	default:
		return "", fmt.Errorf("unknown preprocessing mode %q", s)
	}
}

// DetectMode picks a recipe from grayscale statistics: low contrast needs the
// aggressive recipe, bright high-contrast scans need very little.
func DetectMode(g *image.Gray) Mode {
	mean, std := meanStd(g)
	switch {
	case std < 40:
		return ModeAggressive
	case mean > 200 && std > 50:
		return ModeMinimal
	default:
		return ModeStandard
	}
}

// Apply runs the recipe for mode over src. ModeAuto is resolved first.
func Apply(src image.Image, mode Mode) (*image.Gray, Mode, []string) {
	g := toGray(src)
	if mode == ModeAuto || mode == "" {
		mode = DetectMode(g)
	}
	steps := []string{"grayscale conversion"}

	switch mode {
	case ModeAggressive:
		g = scale(g, 2)
		g = median3(g)
		g = adaptiveThreshold(g, 11, 2)
		g = dilate(g, 3, 2)
		steps = append(steps,
			"2x scaling (Catmull-Rom)",
			"median denoising (3x3)",
			"adaptive threshold (Gaussian, block 11, C 2)",
			"dilation (3x3 kernel, 2 iterations)",
		)
	case ModeMinimal:
		g = scale(g, 2)
		g = threshold(g, 127)
		steps = append(steps,
			"2x scaling (Catmull-Rom)",
			"binary threshold (127)",
		)
	case ModeReceipt:
		g = scale(g, 3)
		g = clahe(g, 2.0, 8)
		g = threshold(g, otsu(g))
		g = dilate(g, 3, 2)
		steps = append(steps,
			"3x scaling (Catmull-Rom)",
			"CLAHE contrast enhancement (clip 2.0, 8x8 tiles)",
			"Otsu threshold",
			"dilation (3x3 kernel, 2 iterations)",
		)
	default:
		mode = ModeStandard
		g = scale(g, 2)
		g = gaussianBlur(g, 5)
		g = threshold(g, otsu(g))
		g = dilate(g, 2, 1)
		g = open(g, 2)
		steps = append(steps,
			"2x scaling (Catmull-Rom)",
			"Gaussian blur (5x5 kernel)",
			"Otsu threshold",
			"dilation (2x2 kernel, 1 iteration)",
			"morphological opening (2x2 kernel)",
		)
	}
	return g, mode, steps
}

// ProcessedName is the file name used for the processed copy of path.
func ProcessedName(path string) string {
	base := filepath.Base(path)
	return "processed_" + strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}

// PreprocessFile decodes imagePath, applies mode and writes the result as a
// JPEG into outDir.
func PreprocessFile(imagePath, outDir string, mode Mode, quality int) (Preprocessed, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return Preprocessed{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return Preprocessed{}, fmt.Errorf("decode image %s: %w", filepath.Base(imagePath), err)
	}
	b := src.Bounds()
	if b.Empty() {
		return Preprocessed{}, fmt.Errorf("image %s has no pixels", filepath.Base(imagePath))
	}

	out, resolved, steps := Apply(src, mode)

	if outDir == "" {
		outDir = filepath.Dir(imagePath)
	}
	outPath := filepath.Join(outDir, ProcessedName(imagePath))
	dst, err := os.Create(outPath)
	if err != nil {
		return Preprocessed{}, fmt.Errorf("create processed image: %w", err)
	}
	if err := jpeg.Encode(dst, out, &jpeg.Options{Quality: quality}); err != nil {
		dst.Close()
		os.Remove(outPath)
		return Preprocessed{}, fmt.Errorf("encode processed image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return Preprocessed{}, fmt.Errorf("write processed image: %w", err)
	}

	return Preprocessed{
		Mode:       resolved,
		Steps:      steps,
		OutputPath: outPath,
		Original:   Dimensions{Width: b.Dx(), Height: b.Dy()},
		Processed:  Dimensions{Width: out.Rect.Dx(), Height: out.Rect.Dy()},
	}, nil
}
