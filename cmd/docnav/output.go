package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docnav/internal/document"
	"github.com/dgallion1/docnav/internal/narration"
	"github.com/dgallion1/docnav/internal/qa"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// boxStyle for the document summary
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

type output string

const (
	outputText output = "text"
	outputYAML output = "yaml"
	outputJSON output = "json"
)

func parseOutput(s string) (output, error) {
	switch o := output(strings.ToLower(strings.TrimSpace(s))); o {
	case outputText, outputYAML, outputJSON:
		return o, nil
	case "yml":
		return outputYAML, nil
	case "":
		return outputText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
}

func render(w io.Writer, doc *document.Document, o output) error {
	switch o {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case outputYAML:
		return writeYAML(w, doc)
	}
	renderSummary(w, doc)
	return nil
}

// writeYAML goes through JSON so the keys match the API's field names.
func writeYAML(w io.Writer, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return err
	}
	return enc.Close()
}

func renderSummary(w io.Writer, doc *document.Document) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(doc.Name) + "\n")
	b.WriteString(dimStyle.Render("id "+doc.ID) + "\n")

	status := successStyle.Render(string(doc.Status))
	if doc.Status != document.StatusCompleted {
		status = errorStyle.Render(string(doc.Status))
	}
	b.WriteString(fmt.Sprintf("Status:     %s\n", status))
	b.WriteString(fmt.Sprintf("Pages:      %d of %d read\n", doc.Stats.SuccessfulPages, doc.Stats.TotalPages))
	b.WriteString(fmt.Sprintf("Words:      %d\n", doc.Stats.TotalWords))
	b.WriteString(fmt.Sprintf("Confidence: %.2f", doc.Stats.AverageConfidence))
	if doc.Error != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+doc.Error.Error()))
	}
	fmt.Fprintln(w, boxStyle.Render(b.String()))

	for _, p := range doc.Pages {
		fmt.Fprintln(w, pageLine(p))
	}
}

func pageLine(p *document.Page) string {
	head := fmt.Sprintf("  page %d  ", p.Number)
	if p.Error != nil {
		return head + errorStyle.Render("✗ "+p.Error.Error())
	}
	line := head + successStyle.Render("✓") + dimStyle.Render(fmt.Sprintf(" %d words, %.0f%%", p.OCR.WordCount, p.OCR.Confidence))
	if p.Narration == nil {
		return line
	}
	switch p.Narration.Review.Verdict {
	case narration.VerdictApproved:
		line += "  " + successStyle.Render(string(p.Narration.Review.Verdict))
	default:
		line += "  " + warnStyle.Render(string(p.Narration.Review.Verdict))
	}
	if intro := p.Narration.Script.Intro; intro != "" {
		line += "\n    " + intro
	}
	return line
}

func renderAnswer(w io.Writer, ans qa.Answer) {
	fmt.Fprintln(w, ans.Answer)
	meta := fmt.Sprintf("confidence %d", ans.Confidence)
	if ans.DocumentID != "" {
		meta += ", document " + ans.DocumentID
	}
	fmt.Fprintln(w, dimStyle.Render(meta))
	for _, s := range ans.Sources {
		label := s.Label
		if label == "" {
			label = fmt.Sprintf("page %d", s.Page)
		}
		fmt.Fprintln(w, dimStyle.Render("  - "+label))
	}
}
