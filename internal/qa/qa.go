// Package qa answers questions about stored document text. It never writes.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/docnav/internal/chunker"
	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/llm"
)

var (
	ErrNoText        = errors.New("no extracted text to answer from")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNotFound      = errors.New("document not found")
)

// Documents loads stored records. The lookup must return an error matching
// ErrNotFound (via errors.Is) or a nil document when the id is unknown.
type Documents interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

// Source is a passage the answer was drawn from.
type Source struct {
	Page  int    `json:"page"`
	Label string `json:"label"`
}

// Answer is the model's reply with its self-reported confidence (0-100).
type Answer struct {
	Answer     string   `json:"answer"`
	Confidence int      `json:"confidence"`
	DocumentID string   `json:"document_id,omitempty"`
	Sources    []Source `json:"sources"`
}

type Config struct {
	Chunking         chunker.Config
	MaxContextChunks int
	MaxTokens        int
}

// Answerer selects relevant passages and asks the text profile.
type Answerer struct {
	svc      llm.Service
	docs     Documents
	cfg      Config
	log      *slog.Logger
	notFound []error
}

// NewAnswerer builds an Answerer. docs may be nil for text-only use.
// notFound lists the store's own not-found sentinels.
func NewAnswerer(svc llm.Service, docs Documents, cfg Config, log *slog.Logger, notFound ...error) *Answerer {
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = 6
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	return &Answerer{svc: svc, docs: docs, cfg: cfg, log: log, notFound: append([]error{ErrNotFound}, notFound...)}
}

// Answer resolves docIDOrText as a stored document id first. Input that is
// not a known id is treated as text when it contains whitespace; a bare
// unknown token is reported as ErrNotFound.
func (a *Answerer) Answer(ctx context.Context, docIDOrText, question string) (Answer, error) {
	key := strings.TrimSpace(docIDOrText)
	if a.docs != nil && key != "" && !strings.ContainsFunc(key, unicode.IsSpace) {
		doc, err := a.docs.Get(ctx, key)
		switch {
		case err == nil && doc != nil:
			return a.AnswerDocument(ctx, doc, question)
		case err != nil && !a.isNotFound(err):
			return Answer{}, fmt.Errorf("load document %s: %w", key, err)
		}
		return Answer{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return a.AnswerText(ctx, docIDOrText, question)
}

func (a *Answerer) isNotFound(err error) bool {
	for _, nf := range a.notFound {
		if errors.Is(err, nf) {
			return true
		}
	}
	return false
}

// AnswerDocument answers from a loaded record's page text.
func (a *Answerer) AnswerDocument(ctx context.Context, doc *document.Document, question string) (Answer, error) {
	ans, err := a.answer(ctx, chunker.ChunkDocument(doc, a.cfg.Chunking), question)
	ans.DocumentID = doc.ID
	return ans, err
}

// AnswerText answers from free text.
func (a *Answerer) AnswerText(ctx context.Context, text, question string) (Answer, error) {
	return a.answer(ctx, chunker.ChunkText(text, a.cfg.Chunking), question)
}

func (a *Answerer) answer(ctx context.Context, chunks []chunker.Chunk, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	if len(chunks) == 0 {
		return Answer{}, ErrNoText
	}

	passages := Select(chunks, question, a.cfg.MaxContextChunks)
	resp, err := a.svc.Generate(ctx, llm.Request{
		Profile:     llm.ProfileText,
		System:      answerSystem,
		Prompt:      buildPrompt(passages, question),
		Temperature: 0,
		MaxTokens:   a.cfg.MaxTokens,
		Structured:  true,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("answer call: %w", err)
	}

	var raw struct {
		Answer     string   `json:"answer"`
		Confidence *float64 `json:"confidence"`
	}
	if err := llm.DecodeObject(resp, &raw); err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}
	ans := Answer{
		Answer:  strings.TrimSpace(raw.Answer),
		Sources: make([]Source, 0, len(passages)),
	}
	if ans.Answer == "" {
		return Answer{}, errors.New("answer response is empty")
	}
	if raw.Confidence != nil {
		ans.Confidence = scaleConfidence(*raw.Confidence)
	}
	for _, c := range passages {
		ans.Sources = append(ans.Sources, Source{Page: c.Page, Label: c.Label()})
	}
	a.log.Debug("question answered", "chunks", len(chunks), "context", len(passages), "confidence", ans.Confidence)
	return ans, nil
}

func scaleConfidence(c float64) int {
	if c > 0 && c < 1 {
		c *= 100
	}
	return int(math.Round(math.Max(0, math.Min(100, c))))
}

// Select returns up to n chunks ranked by overlap with the question's terms,
// in their original order. With no overlapping chunk the first n are used.
func Select(chunks []chunker.Chunk, question string, n int) []chunker.Chunk {
	if n <= 0 || len(chunks) <= n {
		return chunks
	}
	terms := Terms(question)

	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, len(chunks))
	for i, c := range chunks {
		ranked[i] = scored{idx: i, score: overlap(terms, c.Text)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	picked := make([]int, 0, n)
	for _, r := range ranked[:n] {
		picked = append(picked, r.idx)
	}
	sort.Ints(picked)

	out := make([]chunker.Chunk, 0, n)
	for _, i := range picked {
		out = append(out, chunks[i])
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "what": true,
	"who": true, "when": true, "where": true, "which": true, "how": true, "this": true,
	"that": true, "does": true, "did": true, "with": true, "from": true, "page": true,
	"document": true, "is": true, "of": true, "to": true, "in": true, "on": true, "a": true,
}

// Terms lowercases and tokenizes s, dropping stopwords and one-letter words.
func Terms(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) < 2 || stopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

func overlap(terms map[string]bool, text string) int {
	n := 0
	for w := range Terms(text) {
		if terms[w] {
			n++
		}
	}
	return n
}
