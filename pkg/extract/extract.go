// Package extract pulls plain text out of a narrow set of binary office
// document formats so their contents are still reachable by the regex
// matcher, which otherwise only ever sees raw bytes.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Extracted is one piece of text pulled out of a binary file, named after
// its location inside the archive (or "content" for a flat format like PDF).
type Extracted struct {
	Name    string
	Content []byte
}

// Supported reports whether ext (as returned by filepath.Ext, lowercased)
// names a format Text can extract from.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".xlsx", ".docx", ".pdf":
		return true
	default:
		return false
	}
}

// Text extracts plain text from a supported binary file. path is used only
// to determine the format from its extension.
func Text(path string, content []byte) ([]Extracted, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return extractXLSX(content)
	case ".docx":
		return extractDOCX(content)
	case ".pdf":
		return extractPDF(content)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// extractXLSX pulls text out of the shared string table and the per-sheet
// XML, which together hold everything a user typed into an Excel workbook.
func extractXLSX(content []byte) ([]Extracted, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx as zip: %w", err)
	}

	var out []Extracted
	for _, f := range zr.File {
		if f.Name != "xl/sharedStrings.xml" &&
			!(strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml")) {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			continue
		}
		if text := extractXMLText(data); text != "" {
			out = append(out, Extracted{Name: f.Name, Content: []byte(text)})
		}
	}
	return out, nil
}

// extractDOCX pulls text out of word/document.xml, the single file holding
// a Word document's body.
func extractDOCX(content []byte) ([]Extracted, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx as zip: %w", err)
	}

	var out []Extracted
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			continue
		}
		if text := extractXMLText(data); text != "" {
			out = append(out, Extracted{Name: f.Name, Content: []byte(text)})
		}
	}
	return out, nil
}

// extractPDF renders every page's plain text. ledongthuc/pdf requires a
// ReaderAt with a known size, so content is spilled to a temp file first.
func extractPDF(content []byte) ([]Extracted, error) {
	tmp, err := os.CreateTemp("", "nosecrets-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, r, err := pdf.Open(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var text strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, nil
	}
	return []Extracted{{Name: "content", Content: []byte(text.String())}}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// extractXMLText walks an XML document and concatenates its character data,
// which is where both Office Open XML formats keep user-visible text.
func extractXMLText(data []byte) string {
	var text strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		chars, ok := tok.(xml.CharData)
		if !ok {
			continue
		}
		if cleaned := cleanText(string(chars)); cleaned != "" {
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(cleaned)
		}
	}
	return text.String()
}

// cleanText collapses runs of whitespace to a single space and drops
// non-printable runes.
func cleanText(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPrint(r):
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
