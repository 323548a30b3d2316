package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docnav/internal/llm"
)

// Input is one page handed to the engine.
type Input struct {
	PageNumber int
	TotalPages int
	Text       string
	// ImagePath is read when Image is nil. Both may be empty, in which case
	// the vision pass is skipped.
	ImagePath string
	Image     *llm.Image
	// Progress, when set, is called before each role runs.
	Progress func(Role)
}

func (in Input) report(r Role) {
	if in.Progress != nil {
		in.Progress(r)
	}
}

// Options tunes the three calls.
type Options struct {
	VisionTemperature    float64
	NarrationTemperature float64
	ReviewTemperature    float64
	VisionMaxTokens      int
	NarrationMaxTokens   int
	ReviewMaxTokens      int
	// ExcerptRunes bounds the OCR text sent alongside the image.
	ExcerptRunes int
	// TextRunes bounds the page text sent to the actor and reviewer.
	TextRunes int
}

func DefaultOptions() Options {
	return Options{
		VisionTemperature:    0.2,
		NarrationTemperature: 0.3,
		ReviewTemperature:    0,
		VisionMaxTokens:      2048,
		NarrationMaxTokens:   3000,
		ReviewMaxTokens:      1024,
		ExcerptRunes:         1500,
		TextRunes:            12000,
	}
}

// Engine runs vision, narration and review for a page. It holds no
// per-page state and is safe for concurrent use.
type Engine struct {
	svc  llm.Service
	log  *slog.Logger
	opts Options
	now  func() time.Time
}

func NewEngine(svc llm.Service, log *slog.Logger, opts Options) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{svc: svc, log: log, opts: opts, now: time.Now}
}

// Narrate always returns a record. Call failures are substituted with
// deterministic fallbacks and listed in Record.Failures.
func (e *Engine) Narrate(ctx context.Context, in Input) *Record {
	log := e.log.With("page", in.PageNumber, "total_pages", in.TotalPages)
	rec := &Record{}

	in.report(RoleVision)
	rec.Findings = e.vision(ctx, in, rec, log)

	text := truncateRunes(strings.TrimSpace(in.Text), e.opts.TextRunes)
	in.report(RoleNarration)
	script, err := e.narrate(ctx, in, text, rec.Findings)
	if err != nil {
		log.Warn("narration call failed, using placeholder", "error", err)
		rec.fail(RoleNarration, err.Error())
		script = PlaceholderScript(in.PageNumber, in.TotalPages)
		rec.ScriptFallback = true
	}
	rec.Script = script

	in.report(RoleReview)
	review, err := e.review(ctx, script, text)
	if err != nil {
		log.Warn("review call failed, defaulting verdict", "error", err)
		rec.fail(RoleReview, err.Error())
		review = FallbackReview(err.Error())
		rec.ReviewFallback = true
	}
	rec.Review = review
	rec.GeneratedAt = e.now().UTC()

	log.Info("page narrated",
		"verdict", rec.Review.Verdict,
		"confidence", rec.Review.Confidence,
		"script_fallback", rec.ScriptFallback,
		"failures", len(rec.Failures),
	)
	return rec
}

func (e *Engine) vision(ctx context.Context, in Input, rec *Record, log *slog.Logger) Findings {
	empty := normalizeFindings(rawFindings{})

	img := in.Image
	if img == nil && in.ImagePath != "" {
		loaded, err := loadImage(in.ImagePath)
		if err != nil {
			rec.fail(RoleVision, err.Error())
			return empty
		}
		img = loaded
	}
	if img == nil {
		return empty
	}

	resp, err := e.svc.Generate(ctx, llm.Request{
		Profile:     llm.ProfileVision,
		System:      visionSystem,
		Prompt:      buildVisionPrompt(truncateRunes(strings.TrimSpace(in.Text), e.opts.ExcerptRunes)),
		Image:       img,
		Temperature: e.opts.VisionTemperature,
		MaxTokens:   e.opts.VisionMaxTokens,
	})
	if err != nil {
		log.Warn("vision call failed", "error", err)
		rec.fail(RoleVision, err.Error())
		return empty
	}
	f, err := ParseFindings(resp)
	if err != nil {
		log.Warn("vision response unparseable", "error", err)
		rec.fail(RoleVision, err.Error())
		return empty
	}
	return f
}

// ParseFindings decodes the object embedded in a vision response, ignoring
// any prose around it.
func ParseFindings(resp string) (Findings, error) {
	var raw rawFindings
	if err := llm.DecodeObject(resp, &raw); err != nil {
		return normalizeFindings(rawFindings{}), err
	}
	return normalizeFindings(raw), nil
}

func (e *Engine) narrate(ctx context.Context, in Input, text string, f Findings) (Script, error) {
	resp, err := e.svc.Generate(ctx, llm.Request{
		Profile:     llm.ProfileText,
		System:      narrationSystem,
		Prompt:      buildNarrationPrompt(in, text, f),
		Temperature: e.opts.NarrationTemperature,
		MaxTokens:   e.opts.NarrationMaxTokens,
		Structured:  true,
	})
	if err != nil {
		return Script{}, err
	}
	var s Script
	if err := llm.DecodeObject(resp, &s); err != nil {
		return Script{}, err
	}
	if !sanitizeScript(&s) {
		return Script{}, errors.New("narration script has no usable intro")
	}
	return s, nil
}

func (e *Engine) review(ctx context.Context, s Script, text string) (Review, error) {
	resp, err := e.svc.Generate(ctx, llm.Request{
		Profile:     llm.ProfileText,
		System:      reviewSystem,
		Prompt:      buildReviewPrompt(s, text),
		Temperature: e.opts.ReviewTemperature,
		MaxTokens:   e.opts.ReviewMaxTokens,
		Structured:  true,
	})
	if err != nil {
		return Review{}, err
	}
	var raw rawReview
	if err := llm.DecodeObject(resp, &raw); err != nil {
		return Review{}, err
	}
	r, ok := normalizeReview(raw)
	if !ok {
		return Review{}, errors.New("review response has no verdict")
	}
	return r, nil
}

// ErrorRecord is stored for a page whose narration could not run at all.
func ErrorRecord(page, total int, reason string) *Record {
	return &Record{
		Findings:       normalizeFindings(rawFindings{}),
		Script:         PlaceholderScript(page, total),
		Review:         Review{Issues: []string{reason}, Verdict: VerdictError},
		ScriptFallback: true,
		ReviewFallback: true,
		Failures:       []Failure{{Role: RoleNarration, Message: reason}},
		GeneratedAt:    time.Now().UTC(),
	}
}

func loadImage(path string) (*llm.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page image: %w", err)
	}
	return &llm.Image{MediaType: mediaType(path), Data: data}, nil
}

func mediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
