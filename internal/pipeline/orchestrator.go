package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
)

// Processor runs one source through the page pipeline.
type Processor interface {
	ProcessObserved(ctx context.Context, src SourceFile, extra Observer) (*document.Document, error)
}

// Orchestrator runs queued uploads on a fixed pool of workers. Each worker
// drives one document at a time; distinct documents share nothing but the
// store.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	exec  Processor
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, exec Processor, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		exec:  exec,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					if workerCtx.Err() != nil {
						o.abandon(job)
						return
					}
					o.run(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop shuts down the pipeline. Documents already running finish; jobs still
// queued are failed with phase "shutdown" and their uploads removed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()

	o.wg.Wait()
	for job := range o.queue {
		o.abandon(job)
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutdown")
		return errors.New("pipeline is shutting down")
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	src := job.Source()
	log := o.log.With("job_id", job.ID, "filename", job.Filename)
	defer removeUpload(log, src.Path)

	job.SetStatus(StatusProcessing, "started")
	// A started document runs to completion even when shutdown begins.
	doc, err := o.exec.ProcessObserved(context.WithoutCancel(ctx), src, &jobObserver{job: job})
	if doc != nil {
		job.SetDocID(doc.ID)
	}

	switch {
	case errors.Is(err, ErrDuplicate):
		log.Info("duplicate document, skipped", "doc_id", doc.ID)
		job.SetStatus(StatusDupSkipped, "dedup")
	case errors.Is(err, ErrNotPersisted):
		// The observer already recorded the store error.
		job.SetStatus(StatusCompleted, "persist")
	case err != nil:
		log.Error("document failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phaseOf(err))
	default:
		log.Info("document processed",
			"doc_id", doc.ID,
			"successful_pages", doc.Stats.SuccessfulPages,
			"failed_pages", doc.Stats.FailedPages,
		)
		job.SetStatus(StatusCompleted, "done")
	}
}

// abandon fails a job that never started because the pipeline stopped.
func (o *Orchestrator) abandon(job *Job) {
	log := o.log.With("job_id", job.ID, "filename", job.Filename)
	log.Warn("job abandoned at shutdown")
	job.AddError("server shut down before processing started")
	job.SetStatus(StatusFailed, "shutdown")
	removeUpload(log, job.Source().Path)
}

func removeUpload(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("remove upload", "error", err)
	}
}

func phaseOf(err error) string {
	var serr *document.StageError
	if errors.As(err, &serr) {
		return string(serr.Stage)
	}
	return "failed"
}

// jobObserver mirrors pipeline progress onto a job for status polling.
type jobObserver struct {
	job *Job
}

func (o *jobObserver) DocumentStarted(doc *document.Document) {
	o.job.SetDocID(doc.ID)
}

func (o *jobObserver) StageFinished(doc *document.Document, page int, stage document.Stage, _ time.Duration, err error) {
	if page > 0 {
		o.job.SetTotalPages(len(doc.Pages))
	}
	if err != nil {
		if page > 0 {
			o.job.AddError(fmt.Sprintf("page %d %s: %v", page, stage, err))
		} else {
			o.job.AddError(fmt.Sprintf("%s: %v", stage, err))
		}
	}
	// A page is done extracting after OCR, or after a failed preprocess
	// (which skips OCR).
	if stage == document.StageOCR || stage == document.StagePreprocess && err != nil {
		o.job.IncrPagesExtracted()
	}
	o.job.SetStatus(StatusProcessing, string(stage))
}

func (o *jobObserver) NarrationFinished(_ *document.Document, _ int, _ *narration.Record, _ time.Duration) {
	o.job.IncrPagesNarrated()
	o.job.SetStatus(StatusProcessing, string(document.StageNarration))
}

func (o *jobObserver) DocumentFinished(doc *document.Document, _ time.Duration) {
	o.job.SetTotalPages(doc.PageCount)
}
