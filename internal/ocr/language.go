package ocr

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguage is the Tesseract language used when nothing better is known.
const DefaultLanguage = "eng"

const minDetectRunes = 20

// LinguaDetector detects the language of OCR output among the languages
// Tesseract commonly ships trained data for.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

func NewLinguaDetector() *LinguaDetector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.French,
			lingua.German,
			lingua.Spanish,
			lingua.Italian,
			lingua.Portuguese,
			lingua.Dutch,
		).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &LinguaDetector{detector: d}
}

// Detect returns a lower-case ISO 639-3 code. Short or ambiguous text is
// not classified.
func (d *LinguaDetector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minDetectRunes {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_3().String()), true
}
