package pipeline

import (
	"log/slog"
	"time"

	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
)

// Observer is told about pipeline progress. It never influences control
// flow. Page is 0 for document-level stages.
type Observer interface {
	DocumentStarted(doc *document.Document)
	StageFinished(doc *document.Document, page int, stage document.Stage, took time.Duration, err error)
	NarrationFinished(doc *document.Document, page int, rec *narration.Record, took time.Duration)
	DocumentFinished(doc *document.Document, took time.Duration)
}

// Observers fans events out to several observers in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) DocumentStarted(doc *document.Document) {
	for _, o := range m {
		o.DocumentStarted(doc)
	}
}

func (m multiObserver) StageFinished(doc *document.Document, page int, stage document.Stage, took time.Duration, err error) {
	for _, o := range m {
		o.StageFinished(doc, page, stage, took, err)
	}
}

func (m multiObserver) NarrationFinished(doc *document.Document, page int, rec *narration.Record, took time.Duration) {
	for _, o := range m {
		o.NarrationFinished(doc, page, rec, took)
	}
}

func (m multiObserver) DocumentFinished(doc *document.Document, took time.Duration) {
	for _, o := range m {
		o.DocumentFinished(doc, took)
	}
}

// LogObserver writes pipeline events to a structured logger.
type LogObserver struct {
	log *slog.Logger
}

func NewLogObserver(log *slog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) DocumentStarted(doc *document.Document) {
	o.log.Info("document started", "document_id", doc.ID, "name", doc.Name, "kind", doc.Kind, "size", doc.Size)
}

func (o *LogObserver) StageFinished(doc *document.Document, page int, stage document.Stage, took time.Duration, err error) {
	if err != nil {
		o.log.Warn("stage failed", "document_id", doc.ID, "page", page, "stage", stage, "duration_ms", took.Milliseconds(), "error", err)
		return
	}
	o.log.Debug("stage finished", "document_id", doc.ID, "page", page, "stage", stage, "duration_ms", took.Milliseconds())
}

func (o *LogObserver) NarrationFinished(doc *document.Document, page int, rec *narration.Record, took time.Duration) {
	o.log.Debug("narration finished",
		"document_id", doc.ID,
		"page", page,
		"verdict", rec.Review.Verdict,
		"failures", len(rec.Failures),
		"duration_ms", took.Milliseconds(),
	)
}

func (o *LogObserver) DocumentFinished(doc *document.Document, took time.Duration) {
	o.log.Info("document finished",
		"document_id", doc.ID,
		"status", doc.Status,
		"total_pages", doc.Stats.TotalPages,
		"successful_pages", doc.Stats.SuccessfulPages,
		"failed_pages", doc.Stats.FailedPages,
		"duration_ms", took.Milliseconds(),
	)
}
