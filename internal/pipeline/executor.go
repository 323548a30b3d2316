package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
	"github.com/dgallion1/docnav/internal/ocr"
	"github.com/dgallion1/docnav/internal/pacer"
)

var (
	// ErrDuplicate is returned with the existing record when a source with
	// the same name and size was already processed.
	ErrDuplicate = errors.New("duplicate document")
	// ErrNotPersisted is returned with a complete record that could not be
	// saved. The record itself is valid.
	ErrNotPersisted = errors.New("document not persisted")
)

// Splitter renders a multi-page source into ordered page images.
type Splitter interface {
	Split(ctx context.Context, src, outDir string) ([]string, error)
}

// OCR prepares and reads page images.
type OCR interface {
	Preprocess(ctx context.Context, imagePath, outDir string) (ocr.Preprocessed, error)
	Extract(ctx context.Context, imagePath string) (ocr.Text, error)
}

// Narrator produces the narration record for a page. It must always return
// a record.
type Narrator interface {
	Narrate(ctx context.Context, in narration.Input) *narration.Record
}

// Store persists finished documents.
type Store interface {
	FindByNameSize(ctx context.Context, name string, size int64) (*document.Document, error)
	Save(ctx context.Context, doc *document.Document) error
}

// SourceFile is an uploaded file on local disk.
type SourceFile struct {
	Path string
	// Name is the client-facing file name; defaults to the base of Path.
	Name string
	Size int64
	// Force skips the duplicate check.
	Force bool
}

// Executor runs one document through the page pipeline.
type Executor struct {
	splitter Splitter
	ocr      OCR
	narrator Narrator
	pacer    *pacer.Pacer
	store    Store
	obs      Observer
	log      *slog.Logger
	workRoot string

	buildTree func(string) *doctree.Tree
	now       func() time.Time
	newID     func() string
}

// ExecutorConfig wires an Executor. Store and Observer may be nil.
type ExecutorConfig struct {
	Splitter Splitter
	OCR      OCR
	Narrator Narrator
	Pacer    *pacer.Pacer
	Store    Store
	Observer Observer
	Log      *slog.Logger
	// WorkRoot is where per-document scratch directories are created.
	WorkRoot string
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = NewLogObserver(log)
	}
	return &Executor{
		splitter:  cfg.Splitter,
		ocr:       cfg.OCR,
		narrator:  cfg.Narrator,
		pacer:     cfg.Pacer,
		store:     cfg.Store,
		obs:       obs,
		log:       log,
		workRoot:  cfg.WorkRoot,
		buildTree: doctree.Build,
		now:       time.Now,
		newID:     generateULID,
	}
}

// KindOf classifies a source by extension.
func KindOf(name string) document.Kind {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return document.KindMultiPage
	}
	return document.KindImage
}

func isTIFF(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}

// Process runs src end to end. Page failures are recorded on the pages and
// never abort the document; only a split failure (or failing to set up the
// scratch directory) is returned as a fatal error. The returned record is
// non-nil whenever the pipeline started.
func (e *Executor) Process(ctx context.Context, src SourceFile) (*document.Document, error) {
	if src.Name == "" {
		src.Name = filepath.Base(src.Path)
	}
	if src.Size == 0 {
		if fi, err := os.Stat(src.Path); err == nil {
			src.Size = fi.Size()
		}
	}

	if e.store != nil && !src.Force {
		existing, err := e.store.FindByNameSize(ctx, src.Name, src.Size)
		if err != nil {
			e.log.Warn("dedup check failed, proceeding", "name", src.Name, "error", err)
		} else if existing != nil {
			e.log.Info("duplicate document, skipping", "name", src.Name, "existing_id", existing.ID)
			return existing, ErrDuplicate
		}
	}

	start := e.now()
	doc := document.New(e.newID(), src.Name, src.Size, KindOf(src.Name), start.UTC())
	log := e.log.With("document_id", doc.ID, "name", doc.Name)
	e.obs.DocumentStarted(doc)

	if data, err := os.ReadFile(src.Path); err == nil {
		doc.ContentHash = ContentHashHex(data)
	}

	workDir, err := os.MkdirTemp(e.workRoot, "docnav-"+doc.ID+"-")
	if err != nil {
		return e.abort(ctx, doc, start, document.NewStageError(document.StageSplit, document.KindSplitterFailure,
			fmt.Errorf("create work dir: %w", err)))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("remove work dir", "dir", workDir, "error", err)
		}
	}()

	images := []string{src.Path}
	if doc.Kind == document.KindMultiPage {
		t0 := e.now()
		images, err = e.splitter.Split(ctx, src.Path, filepath.Join(workDir, "pages"))
		e.obs.StageFinished(doc, 0, document.StageSplit, e.now().Sub(t0), err)
		if err != nil {
			return e.abort(ctx, doc, start, document.NewStageError(document.StageSplit, document.KindSplitterFailure, err))
		}
	} else if isTIFF(src.Name) {
		// Only the first frame of a TIFF is decoded, so multi-page scans
		// are refused rather than silently truncated.
		if n, ferr := ocr.TIFFFrames(src.Path); ferr != nil {
			log.Warn("count tiff frames", "error", ferr)
		} else if n > 1 {
			err := fmt.Errorf("tiff has %d pages; convert it to PDF to process every page", n)
			e.obs.StageFinished(doc, 0, document.StageSplit, 0, err)
			return e.abort(ctx, doc, start, document.NewStageError(document.StageSplit, document.KindSplitterFailure, err))
		}
	}

	doc.PageCount = len(images)
	for i, img := range images {
		doc.Pages = append(doc.Pages, document.NewPage(i+1, img))
	}

	for _, page := range doc.Pages {
		e.extractPage(ctx, doc, page, workDir, log.With("page", page.Number))
	}

	// Narration runs as a second pass so every page has text before any
	// inference call is paced.
	for i, page := range doc.Pages {
		e.narratePage(ctx, doc, page, log.With("page", page.Number))
		if err := e.pacer.After(ctx, i, len(doc.Pages)); err != nil {
			log.Warn("narration pacing interrupted", "error", err)
		}
	}

	doc.Stats = CollectStats(doc.Pages)
	doc.Status = document.StatusCompleted
	doc.CompletedAt = e.now().UTC()
	e.obs.DocumentFinished(doc, e.now().Sub(start))

	if err := e.save(ctx, doc); err != nil {
		log.Error("persist document", "error", err)
		return doc, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return doc, nil
}

// ProcessObserved is Process with an extra observer for this run only.
func (e *Executor) ProcessObserved(ctx context.Context, src SourceFile, extra Observer) (*document.Document, error) {
	run := *e
	run.obs = Observers(e.obs, extra)
	return run.Process(ctx, src)
}

func (e *Executor) abort(ctx context.Context, doc *document.Document, start time.Time, serr *document.StageError) (*document.Document, error) {
	doc.Status = document.StatusFailed
	doc.Error = serr
	doc.Stats = CollectStats(doc.Pages)
	doc.CompletedAt = e.now().UTC()
	e.obs.DocumentFinished(doc, e.now().Sub(start))
	if err := e.save(ctx, doc); err != nil {
		e.log.Error("persist failed document", "document_id", doc.ID, "error", err)
	}
	return doc, serr
}

func (e *Executor) save(ctx context.Context, doc *document.Document) error {
	if e.store == nil {
		return nil
	}
	t0 := e.now()
	err := e.store.Save(ctx, doc)
	e.obs.StageFinished(doc, 0, document.StagePersist, e.now().Sub(t0), err)
	return err
}

// extractPage runs preprocess, OCR and structure for one page.
func (e *Executor) extractPage(ctx context.Context, doc *document.Document, page *document.Page, workDir string, log *slog.Logger) {
	page.State = document.PagePreprocessing
	t0 := e.now()
	pre, err := e.ocr.Preprocess(ctx, page.ImageRef, workDir)
	e.obs.StageFinished(doc, page.Number, document.StagePreprocess, e.now().Sub(t0), err)
	if err != nil {
		log.Warn("preprocess failed", "error", err)
		page.Fail(document.NewStageError(document.StagePreprocess, document.KindPreprocessFailure, err))
		return
	}
	page.Preprocessing = document.Preprocessing{
		Completed:       true,
		Mode:            string(pre.Mode),
		Steps:           pre.Steps,
		OriginalWidth:   pre.Original.Width,
		OriginalHeight:  pre.Original.Height,
		ProcessedWidth:  pre.Processed.Width,
		ProcessedHeight: pre.Processed.Height,
	}
	page.State = document.PagePreprocessed

	page.State = document.PageExtractingText
	t0 = e.now()
	text, err := e.ocr.Extract(ctx, pre.OutputPath)
	e.obs.StageFinished(doc, page.Number, document.StageOCR, e.now().Sub(t0), err)
	if err != nil {
		log.Warn("text extraction failed", "error", err)
		page.Fail(document.NewStageError(document.StageOCR, document.KindExtractFailure, err))
		return
	}
	page.OCR = document.OCR{
		Completed:  true,
		Text:       text.Text,
		Confidence: text.Confidence,
		WordCount:  text.WordCount,
		Language:   text.Language,
	}
	page.State = document.PageTextExtracted

	page.State = document.PageBuildingStructure
	t0 = e.now()
	tree, err := e.safeBuild(page.OCR.Text)
	e.obs.StageFinished(doc, page.Number, document.StageStructure, e.now().Sub(t0), err)
	if err != nil {
		log.Error("structure build failed, using empty tree", "error", err)
		page.Error = document.NewStageError(document.StageStructure, document.KindStructureBuildFailure, err)
		tree = doctree.Build("")
	}
	page.Structure = tree
	page.Navigation = doctree.Navigate(tree)
	page.TreeStats = doctree.Rollup(tree)
	page.State = document.PageStructureBuilt
}

func (e *Executor) safeBuild(text string) (tree *doctree.Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree, err = nil, fmt.Errorf("structure builder panic: %v", r)
		}
	}()
	return e.buildTree(text), nil
}

var roleStates = map[narration.Role]document.PageState{
	narration.RoleVision:    document.PageAnalyzingVisual,
	narration.RoleNarration: document.PageNarrating,
	narration.RoleReview:    document.PageReviewing,
}

// narratePage attaches a narration record to every page, failed or not.
// Failed pages keep their failed state.
func (e *Executor) narratePage(ctx context.Context, doc *document.Document, page *document.Page, log *slog.Logger) {
	failed := page.State == document.PageFailed
	in := narration.Input{
		PageNumber: page.Number,
		TotalPages: len(doc.Pages),
		Text:       page.OCR.Text,
		ImagePath:  page.ImageRef,
		Progress: func(r narration.Role) {
			if !failed {
				page.State = roleStates[r]
			}
		},
	}

	t0 := e.now()
	rec := e.safeNarrate(ctx, in, log)
	page.Narration = rec
	e.obs.NarrationFinished(doc, page.Number, rec, e.now().Sub(t0))

	if !failed {
		page.State = document.PageComplete
	}
}

func (e *Executor) safeNarrate(ctx context.Context, in narration.Input, log *slog.Logger) (rec *narration.Record) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("narration engine panic", "panic", r)
			rec = narration.ErrorRecord(in.PageNumber, in.TotalPages, fmt.Sprintf("narration engine panic: %v", r))
		}
	}()
	rec = e.narrator.Narrate(ctx, in)
	if rec == nil {
		rec = narration.ErrorRecord(in.PageNumber, in.TotalPages, "narration engine returned no record")
	}
	return rec
}
