package narration

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	maxKeyFacts = 10
	maxSections = 20
	maxFieldLen = 600
	maxIssues   = 10
	// neutralConfidence stands in when the reviewer gave no usable score.
	neutralConfidence = 60
	placeholderT      = "unknown"
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// rawFindings accepts the loose shapes vision models return.
type rawFindings struct {
	Tables      []any `json:"tables"`
	Images      []any `json:"images"`
	Layout      any   `json:"layout"`
	LayoutNotes any   `json:"layout_notes"`
}

func normalizeFindings(raw rawFindings) Findings {
	f := Findings{
		Tables: []Table{},
		Images: []string{},
		Layout: []string{},
	}
	for _, t := range raw.Tables {
		switch v := t.(type) {
		case map[string]any:
			f.Tables = append(f.Tables, Table(v))
		case string:
			if s := strings.TrimSpace(v); s != "" {
				f.Tables = append(f.Tables, Table{"description": s})
			}
		}
	}
	for _, img := range raw.Images {
		if s := describe(img); s != "" {
			f.Images = append(f.Images, s)
		}
	}
	f.Layout = append(f.Layout, stringList(raw.LayoutNotes)...)
	f.Layout = append(f.Layout, stringList(raw.Layout)...)
	return f
}

// describe flattens an image finding to one description string.
func describe(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		for _, key := range []string{"description", "caption", "alt", "type"} {
			if s, ok := x[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		b, err := json.Marshal(x)
		if err != nil || len(x) == 0 {
			return ""
		}
		return string(b)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range x {
			if s := describe(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		if s := describe(x); s != "" {
			return []string{s}
		}
	}
	return nil
}

// sanitizeScript trims, bounds and filters an actor script. It returns false
// when the intro is empty. Only list items are screened for injected
// instructions.
func sanitizeScript(s *Script) bool {
	s.Intro = clean(s.Intro)
	if s.Intro == "" {
		return false
	}
	s.DocumentType = strings.ToLower(clean(s.DocumentType))
	if s.DocumentType == "" {
		s.DocumentType = placeholderT
	}
	s.KeyFacts = cleanList(s.KeyFacts, maxKeyFacts)
	s.TableDescriptions = cleanList(s.TableDescriptions, maxSections)
	s.ImageDescriptions = cleanList(s.ImageDescriptions, maxSections)

	sections := make([]Section, 0, len(s.Sections))
	for _, sec := range s.Sections {
		sec.Heading = clean(sec.Heading)
		sec.Summary = clean(sec.Summary)
		if sec.Heading == "" && sec.Summary == "" {
			continue
		}
		sec.KeyPoints = cleanList(sec.KeyPoints, maxKeyFacts)
		sections = append(sections, sec)
		if len(sections) == maxSections {
			break
		}
	}
	s.Sections = sections

	if math.IsNaN(s.ReadingTimeMinutes) || s.ReadingTimeMinutes < 0 {
		s.ReadingTimeMinutes = 0
	}
	s.ReadingTimeMinutes = math.Round(s.ReadingTimeMinutes*10) / 10
	return true
}

func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxFieldLen {
		s = string(r[:maxFieldLen])
	}
	return s
}

// cleanList drops blanks and injected instructions, capping the result at max.
func cleanList(in []string, max int) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		item = clean(item)
		if item == "" || injectionPattern.MatchString(item) {
			continue
		}
		out = append(out, item)
		if len(out) == max {
			break
		}
	}
	return out
}

type rawReview struct {
	Accurate   *bool    `json:"accurate"`
	Confidence *float64 `json:"confidence"`
	Issues     []any    `json:"issues"`
	Verdict    string   `json:"verdict"`
}

func normalizeReview(raw rawReview) (Review, bool) {
	if raw.Accurate == nil && raw.Verdict == "" {
		return Review{}, false
	}
	r := Review{Issues: []string{}}
	for _, is := range raw.Issues {
		if s := describe(is); s != "" {
			r.Issues = append(r.Issues, clean(s))
		}
		if len(r.Issues) == maxIssues {
			break
		}
	}

	switch Verdict(strings.ToLower(strings.TrimSpace(raw.Verdict))) {
	case VerdictApproved:
		r.Verdict = VerdictApproved
	case VerdictNeedsCorrection:
		r.Verdict = VerdictNeedsCorrection
	default:
		if raw.Accurate != nil && *raw.Accurate {
			r.Verdict = VerdictApproved
		} else {
			r.Verdict = VerdictNeedsCorrection
		}
	}
	if raw.Accurate != nil {
		r.Accurate = *raw.Accurate
	} else {
		r.Accurate = r.Verdict == VerdictApproved
	}

	r.Confidence = neutralConfidence
	if raw.Confidence != nil && !math.IsNaN(*raw.Confidence) {
		c := *raw.Confidence
		// Some models answer on a 0-1 scale; a whole 1 is read as 1%.
		if c > 0 && c < 1 {
			c *= 100
		}
		r.Confidence = int(math.Round(math.Max(0, math.Min(100, c))))
	}
	return r, true
}

// PlaceholderScript is the deterministic script used when the actor call fails.
func PlaceholderScript(page, total int) Script {
	intro := "This page could not be summarized automatically."
	if page > 0 && total > 0 {
		intro = fmt.Sprintf("Page %d of %d. This page could not be summarized automatically.", page, total)
	}
	return Script{
		Intro:             intro,
		DocumentType:      placeholderT,
		KeyFacts:          []string{},
		Sections:          []Section{},
		TableDescriptions: []string{},
		ImageDescriptions: []string{},
	}
}

// FallbackReview is the review used when the reviewer call fails.
func FallbackReview(reason string) Review {
	return Review{
		Accurate:   true,
		Confidence: neutralConfidence,
		Issues:     []string{"Review did not run: " + reason},
		Verdict:    VerdictApproved,
	}
}
