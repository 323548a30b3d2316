package document

import (
	"fmt"

	"github.com/dgallion1/docnav/internal/narration"
)

// Stage names a pipeline step a failure is attributed to.
type Stage string

const (
	StageSplit      Stage = "split"
	StagePreprocess Stage = "preprocessing"
	StageOCR        Stage = "ocr"
	StageStructure  Stage = "structure"
	StageVision     Stage = "vision"
	StageNarration  Stage = "narration"
	StageReview     Stage = "review"
	StagePersist    Stage = "persist"
)

// ErrorKind is the closed set of failure categories.
type ErrorKind string

const (
	KindSplitterFailure       ErrorKind = "splitter_failure"
	KindPreprocessFailure     ErrorKind = "preprocess_failure"
	KindExtractFailure        ErrorKind = "extract_failure"
	KindStructureBuildFailure ErrorKind = "structure_build_failure"
	KindVisionCallFailure     ErrorKind = "vision_call_failure"
	KindNarrationCallFailure  ErrorKind = "narration_call_failure"
	KindReviewCallFailure     ErrorKind = "review_call_failure"
	KindPersistenceFailure    ErrorKind = "persistence_failure"
)

// StageError is a failure recorded against a page or document.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Stage, e.Kind, e.Message)
}

// NewStageError builds a StageError from an underlying error.
func NewStageError(stage Stage, kind ErrorKind, err error) *StageError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &StageError{Stage: stage, Kind: kind, Message: msg}
}

var roleFailures = map[narration.Role]struct {
	stage Stage
	kind  ErrorKind
}{
	narration.RoleVision:    {StageVision, KindVisionCallFailure},
	narration.RoleNarration: {StageNarration, KindNarrationCallFailure},
	narration.RoleReview:    {StageReview, KindReviewCallFailure},
}

// NarrationErrors lists the absorbed inference-call failures of a page as
// stage errors.
func (p *Page) NarrationErrors() []*StageError {
	if p.Narration == nil {
		return nil
	}
	var out []*StageError
	for _, f := range p.Narration.Failures {
		rf, ok := roleFailures[f.Role]
		if !ok {
			continue
		}
		out = append(out, &StageError{Stage: rf.stage, Kind: rf.kind, Message: f.Message})
	}
	return out
}
