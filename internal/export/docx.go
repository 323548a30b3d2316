package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docnav/internal/document"
)

// DOCX writes a Word document with heading styles for the document, each
// page and each narrated section, so screen readers can jump between them.
func DOCX(w io.Writer, doc *document.Document) error {
	d := docx.New().WithDefaultTheme()
	heading := func(level int, text string) {
		d.AddParagraph().Style(fmt.Sprintf("Heading%d", level)).AddText(text)
	}
	para := func(text string) {
		if text = strings.TrimSpace(text); text != "" {
			d.AddParagraph().AddText(text)
		}
	}
	bullets := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		d.AddParagraph().AddText(title).Bold()
		for _, it := range items {
			para("• " + it)
		}
	}

	heading(1, doc.Name)
	para(fmt.Sprintf("%d pages, %d words, average OCR confidence %.2f.",
		doc.Stats.TotalPages, doc.Stats.TotalWords, doc.Stats.AverageConfidence))

	for _, p := range doc.Pages {
		heading(2, fmt.Sprintf("Page %d", p.Number))
		if rec := p.Narration; rec != nil {
			para(rec.Script.Intro)
			bullets("Key facts", rec.Script.KeyFacts)
			for _, sec := range rec.Script.Sections {
				if sec.Heading != "" {
					heading(3, sec.Heading)
				}
				para(sec.Summary)
				for _, kp := range sec.KeyPoints {
					para("• " + kp)
				}
			}
			bullets("Tables", rec.Script.TableDescriptions)
			bullets("Images", rec.Script.ImageDescriptions)
			para(fmt.Sprintf("Review: %s, confidence %d.", rec.Review.Verdict, rec.Review.Confidence))
		}

		heading(3, "Text")
		if p.OCR.Text == "" {
			para("No text was extracted from this page.")
			continue
		}
		for _, line := range strings.Split(p.OCR.Text, "\n") {
			para(line)
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
