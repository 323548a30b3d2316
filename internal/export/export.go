// Package export renders processed documents as Markdown, accessible HTML
// or DOCX.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/document"
)

// Format is an export target.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Extension is the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Write renders doc in format f.
func Write(w io.Writer, doc *document.Document, f Format) error {
	switch f {
	case FormatMarkdown:
		_, err := w.Write(Markdown(doc))
		return err
	case FormatHTML:
		b, err := HTML(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatDOCX:
		return DOCX(w, doc)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// FileName is the download name for doc in format f.
func FileName(doc *document.Document, f Format) string {
	base := doc.Name
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = doc.ID
	}
	return base + "." + f.Extension()
}
