package doctree

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// HintLength is the number of runes kept in a node hint.
	HintLength   = 50
	hintEllipsis = "..."

	shortHeadingLimit = 25
	capsHeadingLimit  = 50
)

var enumeratorRe = regexp.MustCompile(`^\d+[.)]`)

var bulletGlyphs = []string{"•", "●", "▪", "■", "◆", "►", "-", "*", "–"}

var headingKeywords = []string{
	"SECTION", "CHAPTER", "PART", "ARTICLE", "ITEM", "SUBJECT",
	"RE:", "TO:", "FROM:", "DATE:",
}

// Build turns the raw text of one page into a heading/content tree.
// It never fails: empty input yields an empty tree with zero counters.
func Build(text string) *Tree {
	tree := &Tree{
		Nodes:   []Node{},
		Roots:   []NodeID{},
		BuiltAt: time.Now(),
	}

	current := NodeID(-1)
	totalLen := 0
	for lineNo, raw := range strings.Split(text, "\n") {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}
		tree.TotalLines++
		runes := utf8.RuneCountInString(line)
		totalLen += runes

		node := Node{
			ID:         NodeID(len(tree.Nodes)),
			Text:       line,
			Hint:       Hint(line),
			LineNumber: lineNo,
			CharCount:  runes,
			WordCount:  len(strings.Fields(line)),
		}

		if IsHeading(line) {
			node.Kind = KindHeading
			node.Level = 1
			tree.Nodes = append(tree.Nodes, node)
			tree.Roots = append(tree.Roots, node.ID)
			tree.HeadingCount++
			current = node.ID
			continue
		}

		node.Kind = KindContent
		tree.Nodes = append(tree.Nodes, node)
		tree.ContentCount++
		if current >= 0 {
			parent := &tree.Nodes[current]
			parent.Children = append(parent.Children, node.ID)
		} else {
			tree.Roots = append(tree.Roots, node.ID)
		}
	}

	tree.TotalNodes = len(tree.Nodes)
	if tree.TotalLines > 0 {
		tree.MeanLineLength = int(math.Round(float64(totalLen) / float64(tree.TotalLines)))
	}
	return tree
}

// IsHeading reports whether a normalized line reads as a heading. The
// predicates are independent and OR-combined.
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	n := utf8.RuneCountInString(line)
	caps := isAllCaps(line)

	if n < shortHeadingLimit && (caps || strings.HasSuffix(line, ":")) {
		return true
	}
	if enumeratorRe.MatchString(line) {
		return true
	}
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(line, g) {
			return true
		}
	}
	upper := strings.ToUpper(line)
	for _, kw := range headingKeywords {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return caps && n < capsHeadingLimit
}

// Hint returns the first HintLength runes of text, with an ellipsis marker
// when truncated.
func Hint(text string) string {
	if utf8.RuneCountInString(text) <= HintLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:HintLength]) + hintEllipsis
}

func normalizeLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// isAllCaps is true when the line has at least one letter and no lowercase ones.
func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if unicode.IsLower(r) {
			return false
		}
	}
	return hasLetter
}
