// Package ocr prepares page images and turns them into text.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Dimensions is an image size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Preprocessed describes one preprocessing run.
type Preprocessed struct {
	Mode       Mode       `json:"mode"`
	Steps      []string   `json:"steps"`
	OutputPath string     `json:"output_path"`
	Original   Dimensions `json:"original"`
	Processed  Dimensions `json:"processed"`
}

// Text is the result of recognizing one image.
type Text struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	WordCount  int     `json:"word_count"`
	Language   string  `json:"language"`
}

// Word is one recognized word with its engine confidence (0-100).
type Word struct {
	Text       string
	Confidence float64
}

// Recognition is the raw engine output.
type Recognition struct {
	Text  string
	Words []Word
}

// Engine recognizes text in an image file.
type Engine interface {
	Recognize(ctx context.Context, imagePath, lang string) (Recognition, error)
}

// LanguageDetector guesses the language of recognized text, returning an
// ISO 639-3 code.
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

// Options configures a Service.
type Options struct {
	Mode     Mode
	Language string
	Quality  int
}

// Service implements preprocessing and text extraction for the pipeline.
type Service struct {
	engine   Engine
	detector LanguageDetector
	opts     Options
	log      *slog.Logger
}

func NewService(engine Engine, detector LanguageDetector, opts Options, log *slog.Logger) *Service {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{engine: engine, detector: detector, opts: opts, log: log}
}

// Preprocess writes an OCR-ready copy of imagePath into outDir.
func (s *Service) Preprocess(ctx context.Context, imagePath, outDir string) (Preprocessed, error) {
	if err := ctx.Err(); err != nil {
		return Preprocessed{}, err
	}
	return PreprocessFile(imagePath, outDir, s.opts.Mode, s.opts.Quality)
}

// Extract recognizes the text in imagePath.
func (s *Service) Extract(ctx context.Context, imagePath string) (Text, error) {
	rec, err := s.engine.Recognize(ctx, imagePath, s.opts.Language)
	if err != nil {
		return Text{}, fmt.Errorf("recognize %s: %w", imagePath, err)
	}
	out := Summarize(rec)
	out.Language = s.opts.Language
	if s.detector != nil {
		if code, ok := s.detector.Detect(out.Text); ok {
			out.Language = code
		}
	}
	s.log.Debug("text extracted", "image", imagePath, "words", out.WordCount, "confidence", out.Confidence, "language", out.Language)
	return out, nil
}

// Summarize computes confidence and word count from raw engine output.
// Confidence is the mean over words scored above zero, rounded to 2 places.
func Summarize(rec Recognition) Text {
	var sum float64
	var scored, words int
	for _, w := range rec.Words {
		if strings.TrimSpace(w.Text) != "" {
			words++
		}
		if w.Confidence > 0 {
			sum += w.Confidence
			scored++
		}
	}
	var conf float64
	if scored > 0 {
		conf = math.Round(sum/float64(scored)*100) / 100
	}
	return Text{
		Text:       strings.TrimSpace(rec.Text),
		Confidence: conf,
		WordCount:  words,
	}
}
