package doctree

// Navigate derives one navigation entry per heading in a single depth-first,
// left-to-right pass.
func Navigate(t *Tree) []NavigationEntry {
	entries := []NavigationEntry{}
	if t.Empty() {
		return entries
	}

	type frame struct {
		id   NodeID
		path []string
	}
	// Explicit stack; roots pushed in reverse so they pop in reading order.
	stack := make([]frame, 0, len(t.Roots))
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: t.Roots[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Node(f.id)
		if n == nil {
			continue
		}
		if n.Kind == KindHeading {
			entries = append(entries, NavigationEntry{
				ID:         n.ID,
				Text:       n.Text,
				Hint:       n.Hint,
				Path:       copyPath(f.path),
				ChildCount: len(n.Children),
				LineNumber: n.LineNumber,
			})
		}
		if len(n.Children) == 0 {
			continue
		}
		childPath := append(copyPath(f.path), n.Hint)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i], path: childPath})
		}
	}
	return entries
}

// Rollup summarizes node metrics. It walks iteratively, so deeper nesting
// cannot exhaust the call stack.
func Rollup(t *Tree) Stats {
	var s Stats
	if t.Empty() {
		return s
	}

	type frame struct {
		id    NodeID
		depth int
	}
	stack := make([]frame, 0, len(t.Roots))
	for _, id := range t.Roots {
		stack = append(stack, frame{id: id, depth: 1})
	}

	visited := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Node(f.id)
		if n == nil {
			continue
		}
		visited++
		switch n.Kind {
		case KindHeading:
			s.HeadingCount++
		case KindContent:
			s.ContentCount++
		}
		if f.depth > s.MaxDepth {
			s.MaxDepth = f.depth
		}
		s.TotalWords += n.WordCount
		s.TotalChars += n.CharCount
		for _, c := range n.Children {
			stack = append(stack, frame{id: c, depth: f.depth + 1})
		}
	}

	if visited > 0 {
		s.AverageWordsPerNode = float64(s.TotalWords) / float64(visited)
	}
	return s
}

func copyPath(p []string) []string {
	out := make([]string, len(p))
	copy(out, p)
	return out
}
