package ocr

import (
	"context"
	"errors"
	"testing"
)

type fakeEngine struct {
	rec  Recognition
	err  error
	lang string
}

func (f *fakeEngine) Recognize(_ context.Context, _ string, lang string) (Recognition, error) {
	f.lang = lang
	return f.rec, f.err
}

type fixedDetector struct {
	code string
	ok   bool
}

func (d fixedDetector) Detect(string) (string, bool) { return d.code, d.ok }

func TestSummarize(t *testing.T) {
	got := Summarize(Recognition{
		Text: "  Hello world x \n",
		Words: []Word{
			{Text: "Hello", Confidence: 91.5},
			{Text: " ", Confidence: -1},
			{Text: "world", Confidence: 88.25},
			{Text: "x", Confidence: 0},
		},
	})
	if got.Text != "Hello world x" {
		t.Errorf("text = %q", got.Text)
	}
	if got.WordCount != 3 {
		t.Errorf("word count = %d, want 3", got.WordCount)
	}
	if got.Confidence != 89.88 {
		t.Errorf("confidence = %v, want 89.88", got.Confidence)
	}
}

func TestSummarize_NoScoredWords(t *testing.T) {
	got := Summarize(Recognition{})
	if got.Confidence != 0 || got.WordCount != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestService_ExtractDefaultsLanguage(t *testing.T) {
	eng := &fakeEngine{rec: Recognition{Text: "hi", Words: []Word{{Text: "hi", Confidence: 90}}}}
	svc := NewService(eng, fixedDetector{}, Options{}, nil)

	got, err := svc.Extract(context.Background(), "page.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.lang != "eng" || got.Language != "eng" {
		t.Errorf("engine lang %q, result lang %q", eng.lang, got.Language)
	}
}

func TestService_ExtractUsesDetectedLanguage(t *testing.T) {
	eng := &fakeEngine{rec: Recognition{Text: "bonjour"}}
	svc := NewService(eng, fixedDetector{code: "fra", ok: true}, Options{Language: "eng"}, nil)
	got, err := svc.Extract(context.Background(), "page.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Language != "fra" {
		t.Errorf("language = %q, want fra", got.Language)
	}
}

func TestService_ExtractEngineError(t *testing.T) {
	boom := errors.New("tesseract crashed")
	svc := NewService(&fakeEngine{err: boom}, nil, Options{}, nil)
	if _, err := svc.Extract(context.Background(), "page.png"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped engine error, got %v", err)
	}
}

func TestService_PreprocessCancelled(t *testing.T) {
	svc := NewService(&fakeEngine{}, nil, Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Preprocess(ctx, "page.png", t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
