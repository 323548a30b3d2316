package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "#", `\#`, "<", `\<`, ">", `\>`, "|", `\|`,
)

// inline escapes OCR and model text so it renders literally.
func inline(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}

// Markdown renders the narration outline followed by the extracted text of
// each page.
func Markdown(doc *document.Document) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", inline(doc.Name))
	fmt.Fprintf(&b, "%d pages, %d words, average OCR confidence %.2f.\n\n",
		doc.Stats.TotalPages, doc.Stats.TotalWords, doc.Stats.AverageConfidence)
	if doc.Stats.FailedPages > 0 {
		fmt.Fprintf(&b, "%d of %d pages could not be read.\n\n", doc.Stats.FailedPages, doc.Stats.TotalPages)
	}

	for _, p := range doc.Pages {
		fmt.Fprintf(&b, "## Page %d\n\n", p.Number)
		if p.Narration != nil {
			writeNarration(&b, p.Narration)
		}
		if len(p.Navigation) > 0 {
			b.WriteString("### Outline\n\n")
			for _, e := range p.Navigation {
				fmt.Fprintf(&b, "- %s\n", inline(e.Text))
			}
			b.WriteString("\n")
		}

		b.WriteString("### Text\n\n")
		if p.OCR.Text == "" {
			if p.Error != nil {
				fmt.Fprintf(&b, "No text could be extracted (%s).\n\n", inline(string(p.Error.Stage)))
			} else {
				b.WriteString("No text was found on this page.\n\n")
			}
			continue
		}
		for _, line := range strings.Split(p.OCR.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				b.WriteString(inline(line))
				b.WriteString("\n\n")
			}
		}
	}
	return b.Bytes()
}

func writeNarration(b *bytes.Buffer, rec *narration.Record) {
	s := rec.Script
	if s.Intro != "" {
		b.WriteString(inline(s.Intro))
		b.WriteString("\n\n")
	}
	if s.DocumentType != "" {
		fmt.Fprintf(b, "Document type: %s. Reading time about %.1f minutes.\n\n", inline(s.DocumentType), s.ReadingTimeMinutes)
	}
	list(b, "Key facts", s.KeyFacts)
	for _, sec := range s.Sections {
		heading := sec.Heading
		if heading == "" {
			heading = "Section"
		}
		fmt.Fprintf(b, "### %s\n\n", inline(heading))
		if sec.Summary != "" {
			b.WriteString(inline(sec.Summary))
			b.WriteString("\n\n")
		}
		for _, kp := range sec.KeyPoints {
			fmt.Fprintf(b, "- %s\n", inline(kp))
		}
		if len(sec.KeyPoints) > 0 {
			b.WriteString("\n")
		}
	}
	list(b, "Tables", s.TableDescriptions)
	list(b, "Images", s.ImageDescriptions)

	r := rec.Review
	fmt.Fprintf(b, "Review: %s, confidence %d.\n\n", r.Verdict, r.Confidence)
	if r.Verdict == narration.VerdictNeedsCorrection {
		list(b, "Reviewer notes", r.Issues)
	}
}

func list(b *bytes.Buffer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", inline(it))
	}
	b.WriteString("\n")
}
