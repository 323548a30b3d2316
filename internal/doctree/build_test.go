package doctree

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIsHeading_Predicates(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"TOTAL DUE:", true},
		{"this is an ordinary sentence.", false},
		{"1. Introduction", true},
		{"2) Scope of work", true},
		{"", false},
		{"Invoice:", true},
		{"• first bullet item in a list that goes on", true},
		{"Section 4 covers the remaining obligations of both parties", true},
		{"re: your letter of March", true},
		{"PAYMENT TERMS AND CONDITIONS FOR SERVICES", true},
		{"12345", false},
		{"The payment is due within thirty days of receipt.", false},
		{"THIS LINE IS WRITTEN IN CAPITALS BUT IT IS FAR TOO LONG TO COUNT", false},
	}
	for _, tc := range cases {
		if got := IsHeading(tc.line); got != tc.want {
			t.Errorf("IsHeading(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestHint_Bounds(t *testing.T) {
	short := "Short heading"
	if got := Hint(short); got != short {
		t.Errorf("expected hint %q, got %q", short, got)
	}

	exact := strings.Repeat("a", HintLength)
	if got := Hint(exact); got != exact {
		t.Errorf("expected 50-rune text unchanged, got %q", got)
	}

	long := strings.Repeat("é", 80)
	got := Hint(long)
	if n := utf8.RuneCountInString(got); n > 53 {
		t.Errorf("expected hint length <= 53, got %d", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis on truncated hint, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Error("expected truncated hint to stay valid UTF-8")
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\n \t\n"} {
		tree := Build(in)
		if !tree.Empty() {
			t.Errorf("expected empty tree for %q, got %d nodes", in, len(tree.Nodes))
		}
		if tree.TotalNodes != 0 || tree.TotalLines != 0 || tree.HeadingCount != 0 ||
			tree.ContentCount != 0 || tree.MeanLineLength != 0 {
			t.Errorf("expected zero counters for %q, got %+v", in, tree)
		}
	}
}

func TestBuild_ContentAttachesToPrecedingHeading(t *testing.T) {
	input := "Preamble text before anything else.\n\nINVOICE\nBilled to Acme Corp.\n  Net   thirty days.\n1. Items\nWidget, two units."
	tree := Build(input)

	if tree.HeadingCount != 2 || tree.ContentCount != 3 {
		t.Fatalf("expected 2 headings and 3 content nodes, got %d/%d", tree.HeadingCount, tree.ContentCount)
	}
	if len(tree.Roots) != 3 {
		t.Fatalf("expected 3 roots (orphan content + 2 headings), got %d", len(tree.Roots))
	}

	orphan := tree.Node(tree.Roots[0])
	if orphan.Kind != KindContent {
		t.Errorf("expected leading content to be a top-level content node, got %s", orphan.Kind)
	}

	invoice := tree.Node(tree.Roots[1])
	if invoice.Text != "INVOICE" || invoice.Level != 1 {
		t.Errorf("unexpected heading %+v", invoice)
	}
	if len(invoice.Children) != 2 {
		t.Fatalf("expected 2 children under INVOICE, got %d", len(invoice.Children))
	}
	second := tree.Node(invoice.Children[1])
	if second.Text != "Net thirty days." {
		t.Errorf("expected collapsed whitespace, got %q", second.Text)
	}
	if second.LineNumber != 4 {
		t.Errorf("expected original line number 4, got %d", second.LineNumber)
	}
}

func TestBuild_Counters(t *testing.T) {
	tree := Build("ABC\nabcdefg")
	if tree.TotalNodes != 2 || tree.TotalLines != 2 {
		t.Fatalf("expected 2 nodes/lines, got %d/%d", tree.TotalNodes, tree.TotalLines)
	}
	if tree.MeanLineLength != 5 {
		t.Errorf("expected mean line length 5, got %d", tree.MeanLineLength)
	}
	if tree.BuiltAt.IsZero() {
		t.Error("expected build timestamp")
	}
}

func TestBuild_Idempotent(t *testing.T) {
	input := "MEMO\nTO: Staff\nThe office closes early on Friday.\nDATE: 12 May\nPlease plan accordingly."
	a := Build(input)
	b := Build(input)

	if a.TotalNodes != b.TotalNodes || a.HeadingCount != b.HeadingCount ||
		a.ContentCount != b.ContentCount || a.MeanLineLength != b.MeanLineLength {
		t.Fatalf("expected identical counters, got %+v and %+v", a, b)
	}
	if len(a.Roots) != len(b.Roots) {
		t.Fatalf("expected identical root count")
	}
	for i := range a.Nodes {
		na, nb := a.Nodes[i], b.Nodes[i]
		if na.Kind != nb.Kind || na.Text != nb.Text || len(na.Children) != len(nb.Children) {
			t.Errorf("node %d differs: %+v vs %+v", i, na, nb)
		}
	}
}
