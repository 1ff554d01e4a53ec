package script

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	fdxSignature      = regexp.MustCompile(`(?i)<FinalDraft|<celtx|WriterDuet`)
	fountainSignature = regexp.MustCompile(`(?mi)^\s*(title\s*:|fade in\s*:)`)
	pdfTextOperators  = regexp.MustCompile(`\bBT\b[\s\S]*?\b(Tj|TJ)\b`)
)

// DetectFormat identifies the script format. A recognized filename
// extension wins; otherwise the content is sniffed.
func DetectFormat(text, filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".fdx":
		return FormatFDX
	case ".fountain", ".spmd":
		return FormatFountain
	case ".pdf":
		return sniffPDF(text)
	}

	trimmed := strings.TrimSpace(strings.TrimPrefix(text, byteOrderMark))

	switch {
	case strings.HasPrefix(trimmed, "<") && fdxSignature.MatchString(trimmed):
		return FormatFDX
	case strings.HasPrefix(trimmed, "%PDF"):
		return sniffPDF(trimmed)
	case fountainSignature.MatchString(trimmed):
		return FormatFountain
	}

	return FormatTXT
}

// sniffPDF separates PDFs carrying a text layer from scanned ones.
// Already-extracted text is treated as a text-layer PDF.
func sniffPDF(text string) Format {
	if !isRawPDF(text) {
		return FormatPDFText
	}
	if pdfTextOperators.MatchString(text) {
		return FormatPDFText
	}
	return FormatPDFOCR
}

func isRawPDF(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "%PDF")
}
