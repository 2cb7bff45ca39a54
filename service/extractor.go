package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat marks an upload the extractor cannot handle. It is
// client-caused and never retried.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ExtractText converts an uploaded file into a single normalized text string.
// Supported inputs are .pdf (page-by-page extraction, pages joined with
// newlines) and .txt (strict UTF-8). Anything else fails with
// ErrUnsupportedFormat.
func ExtractText(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data, filename)
	case ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, filename)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s (only .pdf and .txt are supported)", ErrUnsupportedFormat, filename)
	}
}

func extractPDF(data []byte, filename string) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, filename, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		// A single unreadable page yields an empty string, not a hard failure.
		pages = append(pages, extractPage(reader, i, filename))
	}
	return strings.Join(pages, "\n"), nil
}

func extractPage(reader *pdf.Reader, num int, filename string) (text string) {
	// The pdf library panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pdf page extraction panicked", "file", filename, "page", num, "error", r)
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		slog.Warn("pdf page extraction failed", "file", filename, "page", num, "error", err)
		return ""
	}
	return content
}
