package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat"
)

// readText returns the text of a prose file. PDF pages and RTF/ODT documents
// are converted; anything else is read as UTF-8, with invalid bytes replaced.
func readText(path, ext string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	switch ext {
	case ".pdf":
		return pdfText(content)
	case ".rtf", ".odt":
		text, err := cat.FromBytes(content)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", strings.TrimPrefix(ext, "."), err)
		}
		return text, nil
	default:
		if utf8.Valid(content) {
			return string(content), nil
		}
		return strings.ToValidUTF8(string(content), "\uFFFD"), nil
	}
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		// Page breaks end a sentence.
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}
