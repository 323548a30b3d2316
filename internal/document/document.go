// Package document holds the records produced by the page pipeline.
package document

import (
	"time"

	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/narration"
)

// Kind is the shape of an uploaded source.
type Kind string

const (
	KindImage     Kind = "image"
	KindMultiPage Kind = "multi_page"
)

// Status is the lifecycle state of a document record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is a source file and everything the pipeline derived from it.
type Document struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Size        int64       `json:"size"`
	Kind        Kind        `json:"kind"`
	PageCount   int         `json:"page_count"` // 0 until the source has been split.
	Status      Status      `json:"status"`
	ContentHash string      `json:"content_hash,omitempty"`
	Pages       []*Page     `json:"pages"`
	Stats       Stats       `json:"stats"`
	Error       *StageError `json:"error,omitempty"` // Document-fatal failure only.
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`
}

// Stats is the document-level rollup over successful pages.
type Stats struct {
	TotalPages        int     `json:"total_pages"`
	SuccessfulPages   int     `json:"successful_pages"`
	FailedPages       int     `json:"failed_pages"`
	TotalWords        int     `json:"total_words"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Text joins the extracted text of every page that has any.
func (d *Document) Text() string {
	var out []byte
	for _, p := range d.Pages {
		if p.OCR.Text == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, "\n\n"...)
		}
		out = append(out, p.OCR.Text...)
	}
	return string(out)
}

// PageState tracks a page through the pipeline.
type PageState string

const (
	PageCreated           PageState = "created"
	PagePreprocessing     PageState = "preprocessing"
	PagePreprocessed      PageState = "preprocessed"
	PageExtractingText    PageState = "extracting_text"
	PageTextExtracted     PageState = "text_extracted"
	PageBuildingStructure PageState = "building_structure"
	PageStructureBuilt    PageState = "structure_built"
	PageAnalyzingVisual   PageState = "analyzing_visual"
	PageNarrating         PageState = "narrating"
	PageReviewing         PageState = "reviewing"
	PageComplete          PageState = "complete"
	PageFailed            PageState = "failed"
)

// Terminal reports whether no further stage will move the page.
func (s PageState) Terminal() bool {
	return s == PageComplete || s == PageFailed
}

// Page is one image-equivalent unit of a document.
type Page struct {
	Number   int       `json:"number"`
	ImageRef string    `json:"image_ref"`
	State    PageState `json:"state"`

	Preprocessing Preprocessing `json:"preprocessing"`
	OCR           OCR           `json:"ocr"`

	Structure  *doctree.Tree             `json:"structure,omitempty"`
	Navigation []doctree.NavigationEntry `json:"navigation"`
	TreeStats  doctree.Stats             `json:"tree_stats"`

	Narration *narration.Record `json:"narration,omitempty"`
	Error     *StageError       `json:"error,omitempty"`
}

// Preprocessing is the outcome of image cleanup for OCR.
type Preprocessing struct {
	Completed       bool     `json:"completed"`
	Mode            string   `json:"mode,omitempty"`
	Steps           []string `json:"steps,omitempty"`
	OriginalWidth   int      `json:"original_width,omitempty"`
	OriginalHeight  int      `json:"original_height,omitempty"`
	ProcessedWidth  int      `json:"processed_width,omitempty"`
	ProcessedHeight int      `json:"processed_height,omitempty"`
}

// OCR is the outcome of text extraction.
type OCR struct {
	Completed  bool    `json:"completed"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence"`
	WordCount  int     `json:"word_count"`
	Language   string  `json:"language,omitempty"`
}

// New starts a document record in the processing state.
func New(id, name string, size int64, kind Kind, now time.Time) *Document {
	return &Document{
		ID:        id,
		Name:      name,
		Size:      size,
		Kind:      kind,
		Status:    StatusProcessing,
		Pages:     []*Page{},
		CreatedAt: now,
	}
}

// NewPage creates page number n backed by the image at ref.
func NewPage(n int, ref string) *Page {
	return &Page{
		Number:     n,
		ImageRef:   ref,
		State:      PageCreated,
		Navigation: []doctree.NavigationEntry{},
	}
}

// Fail moves the page to the failed state, keeping every field already set.
func (p *Page) Fail(err *StageError) {
	p.State = PageFailed
	p.Error = err
}

// Succeeded reports whether text extraction completed for the page.
func (p *Page) Succeeded() bool {
	return p.OCR.Completed
}
