package nlp

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// LanguageUnknown is stored when no language could be determined.
const LanguageUnknown = "unknown"

// minDetectRunes is the shortest text the detector is asked about.
const minDetectRunes = 3

// LanguageResult is the outcome of a detection. A result with Reliable set
// to false carries Code LanguageUnknown.
type LanguageResult struct {
	Code       string
	Confidence float64
	Reliable   bool
}

// String returns the code that gets stored on the article.
func (r LanguageResult) String() string {
	if r.Code == "" {
		return LanguageUnknown
	}
	return r.Code
}

// Detector identifies the language of a text.
type Detector interface {
	Detect(text string) LanguageResult
}

// LanguageDetector wraps a lingua detector. Building one loads the language
// models, so construct it once and share it.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector over all supported languages.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// NewLanguageDetectorFor restricts detection to the given languages.
// Restricting the set makes detection faster and more accurate on short text.
func NewLanguageDetectorFor(languages ...lingua.Language) *LanguageDetector {
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

// Detect returns the ISO 639-1 code of text, or an unreliable result with
// code "unknown". It never fails.
func (d *LanguageDetector) Detect(text string) LanguageResult {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minDetectRunes {
		return LanguageResult{Code: LanguageUnknown}
	}

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return LanguageResult{Code: LanguageUnknown}
	}
	code := strings.ToLower(lang.IsoCode639_1().String())
	if code == "" {
		return LanguageResult{Code: LanguageUnknown}
	}
	return LanguageResult{
		Code:       code,
		Confidence: d.detector.ComputeLanguageConfidence(text, lang),
		Reliable:   true,
	}
}
