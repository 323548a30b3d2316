// Package narration produces per-page spoken-navigation scripts with a
// vision pass, an actor pass and an independent review pass.
package narration

import "time"

// Verdict is the outcome of the review pass.
type Verdict string

const (
	VerdictApproved        Verdict = "approved"
	VerdictNeedsCorrection Verdict = "needs_correction"
	VerdictError           Verdict = "error"
)

// Role names one of the inference calls made per page.
type Role string

const (
	RoleVision    Role = "vision"
	RoleNarration Role = "narration"
	RoleReview    Role = "review"
)

// Table is a table finding. Fields vary by model so the object is kept as-is.
type Table map[string]any

// Description returns the table's description field, if any.
func (t Table) Description() string {
	s, _ := t["description"].(string)
	return s
}

// Findings are the visual elements detected on a page image.
type Findings struct {
	Tables []Table  `json:"tables"`
	Images []string `json:"images"`
	Layout []string `json:"layout_notes"`
}

// Section is one entry of the ordered section outline.
type Section struct {
	Heading   string   `json:"heading"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Script is the actor's narration for one page.
type Script struct {
	Intro              string    `json:"intro"`
	DocumentType       string    `json:"document_type"`
	KeyFacts           []string  `json:"key_facts"`
	Sections           []Section `json:"sections"`
	TableDescriptions  []string  `json:"table_descriptions"`
	ImageDescriptions  []string  `json:"image_descriptions"`
	ReadingTimeMinutes float64   `json:"reading_time_minutes"`
}

// Review is the reviewer's fact-check of a script.
type Review struct {
	Accurate   bool     `json:"accurate"`
	Confidence int      `json:"confidence"`
	Issues     []string `json:"issues"`
	Verdict    Verdict  `json:"verdict"`
}

// Failure records an inference call that did not produce a usable result.
type Failure struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// Record is the narration envelope stored on a page.
type Record struct {
	Findings       Findings  `json:"findings"`
	Script         Script    `json:"script"`
	Review         Review    `json:"review"`
	ScriptFallback bool      `json:"script_fallback"`
	ReviewFallback bool      `json:"review_fallback"`
	Failures       []Failure `json:"failures,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Failed reports whether the call for role failed.
func (r *Record) Failed(role Role) bool {
	if r == nil {
		return false
	}
	for _, f := range r.Failures {
		if f.Role == role {
			return true
		}
	}
	return false
}

func (r *Record) fail(role Role, msg string) {
	r.Failures = append(r.Failures, Failure{Role: role, Message: msg})
}
