package service

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/tieubaoca/studytool-be/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor turns stored document bytes into plain text. Implementations
// are pure: the same input always yields the same output.
type TextExtractor interface {
	Extract(format types.DocumentFormat, data []byte) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// FormatFromFilename maps a file extension to its extraction format.
func FormatFromFilename(name string) (types.DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return types.FormatPDF, nil
	case ".txt", ".md":
		return types.FormatPlain, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", types.ErrExtraction, filepath.Ext(name))
	}
}

func (e *textExtractor) Extract(format types.DocumentFormat, data []byte) (string, error) {
	switch format {
	case types.FormatPlain:
		return extractPlain(data)
	case types.FormatPDF:
		return extractPDF(data)
	default:
		return "", fmt.Errorf("%w: unknown format %q", types.ErrExtraction, format)
	}
}

func extractPlain(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", types.ErrDecode)
	}
	return string(data), nil
}

// extractPDF reads every page's text layer. The parser panics on some
// malformed inputs, so a panic is reported as an extraction failure.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", types.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", types.ErrExtraction, pageNum, err)
		}
		pageText = cleanText(pageText)
		// Skip empty pages
		if pageText == "" {
			continue
		}
		pages = append(pages, pageText)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: no text layer in %d pages", types.ErrExtraction, totalPages)
	}
	return strings.Join(pages, types.PageSeparator), nil
}

// pdfNoise drops control and replacement characters left by the text layer.
var pdfNoise = strings.NewReplacer(
	"\u0000", "",
	"\ufffd", "",
	"\u001b", "",
	"\uf8ff", "",
	"\r", "",
	"\f", "\n",
)

func cleanText(text string) string {
	cleaned := pdfNoise.Replace(text)
	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		// Collapse runs of spaces and tabs
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
