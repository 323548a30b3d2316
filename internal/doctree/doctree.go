package doctree

import "time"

// NodeKind classifies a structural element.
type NodeKind string

const (
	KindHeading NodeKind = "heading"
	KindContent NodeKind = "content"
)

// NodeID addresses a node inside a Tree's arena.
type NodeID int

// Node is one line of a page's outline. Nodes live in Tree.Nodes and refer to
// each other by id, never by pointer.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Text     string   `json:"text"`
	Hint     string   `json:"hint"`
	Level    int      `json:"level,omitempty"`    // Headings only.
	Children []NodeID `json:"children,omitempty"` // Headings only.

	LineNumber int `json:"line_number"` // Index in the unfiltered input lines.
	CharCount  int `json:"char_count"`
	WordCount  int `json:"word_count"`
}

// Tree is the heading/content hierarchy of a single page.
type Tree struct {
	Nodes []Node   `json:"nodes"` // Arena, indexed by NodeID.
	Roots []NodeID `json:"roots"` // Top-level nodes in reading order.

	TotalNodes     int       `json:"total_nodes"`
	TotalLines     int       `json:"total_lines"` // Non-blank lines.
	HeadingCount   int       `json:"heading_count"`
	ContentCount   int       `json:"content_count"`
	MeanLineLength int       `json:"mean_line_length"`
	BuiltAt        time.Time `json:"built_at"`
}

// Node returns the node with the given id, or nil when out of range.
func (t *Tree) Node(id NodeID) *Node {
	if t == nil || id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// Empty reports whether the tree has no nodes.
func (t *Tree) Empty() bool {
	return t == nil || len(t.Nodes) == 0
}

// NavigationEntry is a spoken-navigation landmark derived from a heading.
type NavigationEntry struct {
	ID         NodeID   `json:"id"`
	Text       string   `json:"text"`
	Hint       string   `json:"hint"`
	Path       []string `json:"path"` // Ancestor hints, outermost first.
	ChildCount int      `json:"child_count"`
	LineNumber int      `json:"line_number"`
}

// Stats is a rollup of a tree's node metrics.
type Stats struct {
	HeadingCount        int     `json:"heading_count"`
	ContentCount        int     `json:"content_count"`
	MaxDepth            int     `json:"max_depth"`
	TotalWords          int     `json:"total_words"`
	TotalChars          int     `json:"total_chars"`
	AverageWordsPerNode float64 `json:"average_words_per_node"`
}
