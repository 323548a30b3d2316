package pipeline

import (
	"math"

	"github.com/dgallion1/docnav/internal/document"
)

// CollectStats reduces finished pages into document totals. Word and
// confidence figures cover successful pages only.
func CollectStats(pages []*document.Page) document.Stats {
	s := document.Stats{TotalPages: len(pages)}
	var confSum float64
	for _, p := range pages {
		if !p.Succeeded() {
			continue
		}
		s.SuccessfulPages++
		s.TotalWords += p.OCR.WordCount
		confSum += p.OCR.Confidence
	}
	s.FailedPages = s.TotalPages - s.SuccessfulPages
	if s.SuccessfulPages > 0 {
		s.AverageConfidence = math.Round(confSum/float64(s.SuccessfulPages)*100) / 100
	}
	return s
}
