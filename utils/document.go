package utils

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/jobpilot/backend/models"
)

const (
	MimePDF  = "application/pdf"
	MimeText = "text/plain"
)

// DocumentKind resolves the type of an uploaded CV from its declared MIME
// type, its extension and its first bytes. Anything other than PDF or plain
// text is rejected with models.ErrUnsupportedFileType.
func DocumentKind(filename, mimeType string, content []byte) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case mimeType == MimePDF, ext == ".pdf", bytes.HasPrefix(content, []byte("%PDF")):
		return MimePDF, nil
	case mimeType == MimeText, ext == ".txt":
		return MimeText, nil
	default:
		return "", fmt.Errorf("%w: %s (%s)", models.ErrUnsupportedFileType, filename, mimeType)
	}
}

// ExtractText returns the text of an uploaded PDF or plain-text CV
func ExtractText(filename, mimeType string, content []byte) (string, error) {
	kind, err := DocumentKind(filename, mimeType, content)
	if err != nil {
		return "", err
	}

	switch kind {
	case MimePDF:
		return extractPDF(content)
	default:
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%w: %s is not UTF-8 text", models.ErrUnsupportedFileType, filename)
		}
		return strings.TrimSpace(string(content)), nil
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
