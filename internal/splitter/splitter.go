// Package splitter turns a multi-page PDF into ordered page images.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrSplitFailed wraps every splitter error. It is fatal for the document.
var ErrSplitFailed = errors.New("split failed")

// PageCounter reports how many pages a PDF has.
type PageCounter func(path string) (int, error)

// Rasterizer renders every page of src into outDir as prefix-N.png files.
type Rasterizer func(ctx context.Context, src, outDir, prefix string, dpi int) error

// PDF splits PDFs with pdftoppm.
type PDF struct {
	dpi       int
	count     PageCounter
	rasterize Rasterizer
	log       *slog.Logger
}

func New(dpi int, log *slog.Logger) *PDF {
	if dpi <= 0 {
		dpi = 200
	}
	if log == nil {
		log = slog.Default()
	}
	return &PDF{dpi: dpi, count: CountPages, rasterize: Pdftoppm, log: log}
}

// Split renders src into outDir and returns the page image paths in page
// order. On any error outDir is removed and no paths are returned.
func (s *PDF) Split(ctx context.Context, src, outDir string) (pages []string, err error) {
	defer func() {
		if err != nil {
			os.RemoveAll(outDir)
			err = fmt.Errorf("%w: %w", ErrSplitFailed, err)
		}
	}()

	n, err := s.count(src)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}
	if n == 0 {
		return nil, errors.New("pdf has no pages")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}
	if err := s.rasterize(ctx, src, outDir, "page", s.dpi); err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	pages, err = collect(outDir)
	if err != nil {
		return nil, err
	}
	if len(pages) != n {
		return nil, fmt.Errorf("rasterized %d images for %d pages", len(pages), n)
	}
	s.log.Info("pdf split", "source", filepath.Base(src), "pages", n)
	return pages, nil
}

// CountPages reads the page count from the PDF cross-reference table.
func CountPages(path string) (int, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// Pdftoppm shells out to poppler's pdftoppm.
func Pdftoppm(ctx context.Context, src, outDir, prefix string, dpi int) error {
	cmd := exec.CommandContext(ctx, "pdftoppm", "-r", strconv.Itoa(dpi), "-png", src, filepath.Join(outDir, prefix))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

var trailingIndex = regexp.MustCompile(`(\d+)\.[A-Za-z]+$`)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".ppm":  true,
}

func collect(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read page dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	SortNumeric(paths)
	return paths, nil
}

// SortNumeric orders paths by the number before the extension, so page-10
// follows page-9. Names without a number sort last, by name.
func SortNumeric(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		a, aok := pageIndex(paths[i])
		b, bok := pageIndex(paths[j])
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		default:
			return filepath.Base(paths[i]) < filepath.Base(paths[j])
		}
	})
}

func pageIndex(path string) (int, bool) {
	m := trailingIndex.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
