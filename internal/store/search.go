package store

import (
	"context"
	"fmt"
	"strings"
)

// Hit is one page matching a search.
type Hit struct {
	DocID   string  `json:"doc_id"`
	Name    string  `json:"name"`
	Page    int     `json:"page"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Search runs a full-text query over page text, best matches first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	match := matchExpr(query)
	if match == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT page_text.doc_id, d.name, page_text.page,
			snippet(page_text, 2, '[', ']', '...', 12),
			bm25(page_text)
		FROM page_text
		JOIN documents d ON d.id = page_text.doc_id
		WHERE page_text MATCH ?
		ORDER BY bm25(page_text)
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.DocID, &h.Name, &h.Page, &h.Snippet, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		// bm25 is lower-is-better; expose higher-is-better.
		h.Score = -h.Score
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// matchExpr quotes each term so user input cannot use FTS5 query syntax.
// Terms are ANDed.
func matchExpr(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
