package qa

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docnav/internal/chunker"
)

const answerSystem = `You answer questions about scanned documents for blind and low-vision readers. Use only the supplied passages. If they do not contain the answer, say so plainly.`

const answerPrompt = `Answer the question from the passages below. Return a JSON object with these fields:

- "answer": a short spoken answer (string)
- "confidence": how well the passages support the answer, 0 to 100 (integer)

Respond with ONLY the JSON object.`

func buildPrompt(chunks []chunker.Chunk, question string) string {
	var sb strings.Builder
	sb.WriteString(answerPrompt)
	sb.WriteString("\n\n---\n")
	for i, c := range chunks {
		if label := c.Label(); label != "" {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, label)
		} else {
			fmt.Fprintf(&sb, "[%d]\n", i+1)
		}
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString("---\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
