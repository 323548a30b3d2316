package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/docnav/internal/chunker"
	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/llm"
)

type fakeLLM struct {
	resp string
	err  error
	reqs []llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

var errStoreMissing = errors.New("store: not found")

type fakeDocs map[string]*document.Document

func (d fakeDocs) Get(_ context.Context, id string) (*document.Document, error) {
	if doc, ok := d[id]; ok {
		return doc, nil
	}
	return nil, errStoreMissing
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storedDoc() *document.Document {
	doc := &document.Document{ID: "01DOC"}
	for i, text := range []string{"INVOICE\nTotal due 40 dollars", "TERMS:\nPayment within 30 days"} {
		p := document.NewPage(i+1, "p.png")
		p.OCR = document.OCR{Completed: true, Text: text}
		doc.Pages = append(doc.Pages, p)
	}
	return doc
}

func TestAnswer_StoredDocument(t *testing.T) {
	svc := &fakeLLM{resp: `{"answer":"40 dollars are due.","confidence":0.9}`}
	a := NewAnswerer(svc, fakeDocs{"01DOC": storedDoc()}, Config{}, quietLog(), errStoreMissing)

	ans, err := a.Answer(context.Background(), "01DOC", "How much is due?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.Answer != "40 dollars are due." || ans.Confidence != 90 || ans.DocumentID != "01DOC" {
		t.Errorf("answer = %+v", ans)
	}
	if len(ans.Sources) != 2 || ans.Sources[0].Page != 1 || ans.Sources[0].Label != "Page 1 > INVOICE" {
		t.Errorf("sources = %+v", ans.Sources)
	}
	req := svc.reqs[0]
	if req.Profile != llm.ProfileText || !req.Structured {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Prompt, "Total due 40 dollars") || !strings.HasSuffix(req.Prompt, "Question: How much is due?") {
		t.Errorf("prompt = %q", req.Prompt)
	}
}

func TestAnswer_FreeText(t *testing.T) {
	svc := &fakeLLM{resp: `Here: {"answer":"Bob","confidence":75}`}
	a := NewAnswerer(svc, fakeDocs{}, Config{}, quietLog(), errStoreMissing)

	ans, err := a.Answer(context.Background(), "Dear Bob,\nthanks for the letter", "Who is addressed?")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Answer != "Bob" || ans.Confidence != 75 || ans.DocumentID != "" {
		t.Errorf("answer = %+v", ans)
	}
}

func TestAnswer_UnknownID(t *testing.T) {
	svc := &fakeLLM{}
	a := NewAnswerer(svc, fakeDocs{}, Config{}, quietLog(), errStoreMissing)
	if _, err := a.Answer(context.Background(), "01MISSING", "anything?"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(svc.reqs) != 0 {
		t.Error("no inference call expected")
	}
}

func TestAnswer_StoreError(t *testing.T) {
	boom := errors.New("database is locked")
	a := NewAnswerer(&fakeLLM{}, failingDocs{boom}, Config{}, quietLog())
	if _, err := a.Answer(context.Background(), "01DOC", "q?"); !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

type failingDocs struct{ err error }

func (f failingDocs) Get(context.Context, string) (*document.Document, error) { return nil, f.err }

func TestAnswer_NoText(t *testing.T) {
	doc := &document.Document{ID: "01EMPTY", Pages: []*document.Page{document.NewPage(1, "p.png")}}
	a := NewAnswerer(&fakeLLM{}, fakeDocs{"01EMPTY": doc}, Config{}, quietLog())

	if _, err := a.Answer(context.Background(), "01EMPTY", "what?"); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
	if _, err := a.AnswerText(context.Background(), "   ", "what?"); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText for blank text, got %v", err)
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	a := NewAnswerer(&fakeLLM{}, nil, Config{}, quietLog())
	if _, err := a.AnswerText(context.Background(), "some text", "  "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("got %v", err)
	}
}

func TestAnswer_InferenceFailure(t *testing.T) {
	a := NewAnswerer(&fakeLLM{err: &llm.StatusError{StatusCode: 500, Message: "overloaded"}}, nil, Config{}, quietLog())
	_, err := a.AnswerText(context.Background(), "some text", "q?")
	var serr *llm.StatusError
	if !errors.As(err, &serr) {
		t.Errorf("expected wrapped StatusError, got %v", err)
	}
}

func TestAnswer_BadResponse(t *testing.T) {
	for _, resp := range []string{"no json at all", `{"answer":"  "}`} {
		a := NewAnswerer(&fakeLLM{resp: resp}, nil, Config{}, quietLog())
		if _, err := a.AnswerText(context.Background(), "some text", "q?"); err == nil {
			t.Errorf("expected error for %q", resp)
		}
	}
}

func TestSelect_RanksByOverlapKeepsOrder(t *testing.T) {
	var chunks []chunker.Chunk
	for i := range 10 {
		chunks = append(chunks, chunker.Chunk{Index: i, Text: fmt.Sprintf("filler paragraph %d", i)})
	}
	chunks[7].Text = "the warranty expires in March"
	chunks[2].Text = "warranty registration card"

	got := Select(chunks, "When does the warranty expire in March?", 3)
	if len(got) != 3 {
		t.Fatalf("got %d chunks", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 2 || got[2].Index != 7 {
		t.Errorf("selected %d %d %d", got[0].Index, got[1].Index, got[2].Index)
	}
}

func TestSelect_FewerChunksThanLimit(t *testing.T) {
	chunks := []chunker.Chunk{{Text: "a"}, {Text: "b"}}
	if got := Select(chunks, "q", 6); len(got) != 2 {
		t.Errorf("got %d", len(got))
	}
}

func TestTerms(t *testing.T) {
	got := Terms("What is the TOTAL due, in $40?")
	for _, w := range []string{"total", "due", "40"} {
		if !got[w] {
			t.Errorf("missing term %q in %v", w, got)
		}
	}
	for _, w := range []string{"what", "is", "the", "in"} {
		if got[w] {
			t.Errorf("stopword %q kept", w)
		}
	}
}

func TestScaleConfidence(t *testing.T) {
	for in, want := range map[float64]int{0.42: 42, 1: 1, 0: 0, 87: 87, 250: 100, -3: 0} {
		if got := scaleConfidence(in); got != want {
			t.Errorf("scaleConfidence(%v) = %d, want %d", in, got, want)
		}
	}
}
