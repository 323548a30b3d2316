// Package chunker splits page text into structure-aware passages for
// question answering.
package chunker

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/document"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults. MinChunk is low because a short
// line on a scanned page is often the fact being asked about.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     1,
	}
}

// Chunk is one passage of page text.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Page       int      `json:"page"` // 0 for text that did not come from a page.
	Breadcrumb []string `json:"breadcrumb"`
}

// Label is a short human-readable location for the chunk.
func (c Chunk) Label() string {
	return strings.Join(c.Breadcrumb, " > ")
}

func (cfg Config) withDefaults() Config {
	d := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = d.ChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = d.ChunkOverlap
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = d.MinChunk
	}
	return cfg
}

// ChunkDocument chunks every page with extracted text, in page order.
// Pages without a stored structure tree are rebuilt from their text.
func ChunkDocument(doc *document.Document, cfg Config) []Chunk {
	cfg = cfg.withDefaults()
	var chunks []Chunk
	for _, p := range doc.Pages {
		if strings.TrimSpace(p.OCR.Text) == "" {
			continue
		}
		tree := p.Structure
		if tree.Empty() {
			tree = doctree.Build(p.OCR.Text)
		}
		chunks = chunkTree(tree, p.Number, fmt.Sprintf("Page %d", p.Number), cfg, chunks)
	}
	return chunks
}

// ChunkText chunks free text that is not attached to a stored document.
func ChunkText(text string, cfg Config) []Chunk {
	return chunkTree(doctree.Build(text), 0, "", cfg.withDefaults(), nil)
}

type section struct {
	heading string
	lines   []string
}

// sections groups a tree into heading sections. Content that precedes the
// first heading forms a section of its own.
func sections(t *doctree.Tree) []section {
	var out []section
	var loose []string
	flush := func() {
		if len(loose) > 0 {
			out = append(out, section{lines: loose})
			loose = nil
		}
	}
	for _, id := range t.Roots {
		n := t.Node(id)
		if n == nil {
			continue
		}
		if n.Kind != doctree.KindHeading {
			loose = append(loose, n.Text)
			continue
		}
		flush()
		s := section{heading: n.Text, lines: []string{n.Text}}
		for _, c := range n.Children {
			if child := t.Node(c); child != nil {
				s.lines = append(s.lines, child.Text)
			}
		}
		out = append(out, s)
	}
	flush()
	return out
}

func chunkTree(t *doctree.Tree, page int, label string, cfg Config, chunks []Chunk) []Chunk {
	if t.Empty() {
		return chunks
	}
	for _, s := range sections(t) {
		var bc []string
		if label != "" {
			bc = append(bc, label)
		}
		if s.heading != "" {
			bc = append(bc, doctree.Hint(s.heading))
		}

		for _, part := range splitLines(s.lines, cfg.ChunkSize, cfg.ChunkOverlap) {
			if EstimateTokens(part) < cfg.MinChunk {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:       part,
				Index:      len(chunks),
				Page:       page,
				Breadcrumb: copyBreadcrumb(bc),
			})
		}
	}
	return chunks
}

// splitLines packs lines into chunks of approximately targetTokens, with
// overlap carried from the end of the previous chunk.
func splitLines(lines []string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, line := range lines {
		lineTokens := EstimateTokens(line)

		// A single line over the target is split by sentences.
		if lineTokens > targetTokens {
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			result = append(result, splitBySentences(line, targetTokens, overlapTokens)...)
			continue
		}

		if currentTokens+lineTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
		currentTokens += lineTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitBySentences breaks a long line into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}
	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
