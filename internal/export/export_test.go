package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
)

func sampleDoc() *document.Document {
	doc := &document.Document{
		ID:   "01DOC",
		Name: "invoice.pdf",
		Stats: document.Stats{
			TotalPages: 2, SuccessfulPages: 1, FailedPages: 1, TotalWords: 9, AverageConfidence: 91.5,
		},
	}
	p1 := document.NewPage(1, "page-1.png")
	p1.OCR = document.OCR{Completed: true, Text: "INVOICE\nTotal due: <40> dollars *net*", Language: "fra"}
	p1.Structure = doctree.Build(p1.OCR.Text)
	p1.Navigation = doctree.Navigate(p1.Structure)
	p1.Narration = &narration.Record{
		Script: narration.Script{
			Intro:              "An invoice from Acme.",
			DocumentType:       "invoice",
			KeyFacts:           []string{"Total due 40 dollars"},
			Sections:           []narration.Section{{Heading: "Amounts", Summary: "One line item.", KeyPoints: []string{"40 dollars"}}},
			ReadingTimeMinutes: 0.5,
		},
		Review: narration.Review{Verdict: narration.VerdictNeedsCorrection, Confidence: 70, Issues: []string{"Currency unclear"}},
	}
	p2 := document.NewPage(2, "page-2.png")
	p2.Fail(document.NewStageError(document.StageOCR, document.KindExtractFailure, nil))
	p2.Narration = narration.ErrorRecord(2, 2, "no text")
	doc.Pages = []*document.Page{p1, p2}
	return doc
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"md": FormatMarkdown, "Markdown": FormatMarkdown, "HTML": FormatHTML, "word": FormatDOCX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(sampleDoc(), FormatDOCX); got != "invoice.docx" {
		t.Errorf("got %q", got)
	}
	if got := FileName(&document.Document{ID: "01X"}, FormatHTML); got != "01X.html" {
		t.Errorf("got %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	out := string(Markdown(sampleDoc()))
	for _, want := range []string{
		"# invoice.pdf\n",
		"## Page 1\n",
		"An invoice from Acme.",
		"**Key facts**\n\n- Total due 40 dollars\n",
		"### Amounts\n",
		"Review: needs_correction, confidence 70.",
		"- Currency unclear",
		"### Outline\n\n- INVOICE\n",
		`Total due: \<40\> dollars \*net\*`,
		"## Page 2\n",
		"No text could be extracted (ocr).",
		"1 of 2 pages could not be read.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestHTML_Landmarks(t *testing.T) {
	b, err := HTML(sampleDoc())
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	out := string(b)
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="fr">`,
		`<meta charset="utf-8"/>`,
		"<title>invoice.pdf</title>",
		"<main>",
		`<section aria-labelledby="page-1"><h2 id="page-1">Page 1</h2>`,
		`<section aria-labelledby="page-2"><h2 id="page-2">Page 2</h2>`,
		"Total due: &lt;40&gt; dollars *net*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "<h1") > strings.Index(out, "<section") {
		t.Error("document heading should precede the first page section")
	}
	if strings.Contains(out, "<40>") {
		t.Error("OCR text must be escaped")
	}
}

func TestDOCX_Headings(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDoc(), FormatDOCX); err != nil {
		t.Fatalf("DOCX: %v", err)
	}
	d, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("parse written docx: %v", err)
	}

	styles := map[string]string{}
	var texts []string
	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		texts = append(texts, text)
		if para.Properties != nil && para.Properties.Style != nil {
			styles[text] = para.Properties.Style.Val
		}
	}

	for text, style := range map[string]string{
		"invoice.pdf": "Heading1",
		"Page 1":      "Heading2",
		"Page 2":      "Heading2",
		"Amounts":     "Heading3",
	} {
		if styles[text] != style {
			t.Errorf("%q style = %q, want %q", text, styles[text], style)
		}
	}
	all := strings.Join(texts, "\n")
	for _, want := range []string{"Total due: <40> dollars *net*", "• Total due 40 dollars", "No text was extracted from this page."} {
		if !strings.Contains(all, want) {
			t.Errorf("docx missing %q", want)
		}
	}
}

func paragraphText(para *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				b.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
