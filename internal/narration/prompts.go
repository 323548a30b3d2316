package narration

import (
	"encoding/json"
	"fmt"
	"strings"
)

const visionSystem = `You examine scanned document pages for a screen-reader service. You describe what is visible; you never guess at content you cannot see.`

const visionPrompt = `Identify the visual elements on this page. Return a JSON object with these fields:

- "tables": list of objects, one per table, each with "description" (string), "rows" (int), "columns" (int) and "headers" (list of strings)
- "images": list of objects, one per photo, chart, logo or figure, each with "description" (string)
- "layout_notes": list of short strings about columns, sidebars, stamps, signatures or handwriting

Use empty lists when there is nothing to report. Respond with ONLY the JSON object.`

const narrationSystem = `You write spoken navigation scripts that help blind and low-vision readers understand a scanned page before listening to it in full. You only state facts present in the supplied text or findings.`

const narrationPrompt = `Write a narration script for this page. Return a JSON object with these fields:

- "intro": one or two sentences introducing the page (string)
- "document_type": a short class such as "letter", "invoice", "receipt", "form", "report", "article" or "unknown"
- "key_facts": the most important names, dates, amounts and decisions (list of strings, max 10)
- "sections": ordered outline, each with "heading", "summary" and "key_points" (list of strings)
- "table_descriptions": one spoken description per table (list of strings)
- "image_descriptions": one spoken description per image (list of strings)
- "reading_time_minutes": estimated minutes to read the full page aloud (number)

Do not invent facts. If the text is empty or unreadable say so in the intro.`

const reviewSystem = `You are a fact checker. You compare a narration script with the source text it was written from and flag anything that is not supported by that text.`

const reviewPrompt = `Check the narration script against the source text. Return a JSON object with these fields:

- "accurate": true when every statement in the script is supported by the source (boolean)
- "confidence": how sure you are of your verdict, 0 to 100 (integer)
- "issues": unsupported, wrong or missing facts (list of strings, empty when none)
- "verdict": "approved" or "needs_correction"

Respond with ONLY the JSON object.`

func buildVisionPrompt(excerpt string) string {
	var sb strings.Builder
	sb.WriteString(visionPrompt)
	if excerpt != "" {
		sb.WriteString("\n\n---\nOCR text excerpt (may contain recognition errors):\n")
		sb.WriteString(excerpt)
	}
	return sb.String()
}

func buildNarrationPrompt(in Input, text string, f Findings) string {
	var sb strings.Builder
	sb.WriteString(narrationPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Page %d of %d\n", in.PageNumber, in.TotalPages))
	findings, _ := json.Marshal(f)
	sb.WriteString("Visual findings: ")
	sb.Write(findings)
	sb.WriteString("\n---\n")
	if text == "" {
		sb.WriteString("(no text was extracted from this page)")
	} else {
		sb.WriteString(text)
	}
	return sb.String()
}

func buildReviewPrompt(s Script, text string) string {
	var sb strings.Builder
	sb.WriteString(reviewPrompt)
	script, _ := json.MarshalIndent(s, "", "  ")
	sb.WriteString("\n\n---\nNarration script:\n")
	sb.Write(script)
	sb.WriteString("\n---\nSource text:\n")
	if text == "" {
		sb.WriteString("(no text was extracted from this page)")
	} else {
		sb.WriteString(text)
	}
	return sb.String()
}
