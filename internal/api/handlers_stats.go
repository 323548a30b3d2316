package api

import (
	"net/http"

	"github.com/dgallion1/docnav/internal/llm"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil || s.llm.LatencyStats() == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	stats := s.llm.LatencyStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"model":  s.llm.Model(),
		"stats":  stats.Snapshot(),
		"text":   stats.SnapshotFor(llm.ProfileText),
		"vision": stats.SnapshotFor(llm.ProfileVision),
	})
}
