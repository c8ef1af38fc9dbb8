// Package decklens extracts a structured analysis report from PPTX
// presentations: slide geometry, shape inventory, text runs with fonts
// and colors, normalized color palettes, and dominant colors of
// embedded images. The report is plain JSON-serializable data intended
// for downstream consumers such as a chat-completion summarizer.
package decklens

// AnalyzeFile opens a PPTX file and produces its analysis report.
func AnalyzeFile(pathName string) (*Report, error) {
	pres, err := Open(pathName)
	if err != nil {
		return nil, err
	}
	return Analyze(pres), nil
}

// Analyze produces a report with default image extraction settings.
func Analyze(pres *Presentation) *Report {
	return NewAnalyzer().Analyze(pres)
}
