// Package extraction turns uploaded file bytes into normalized plain
// text. Supported formats are plain text, Word documents, PDF, and CSV;
// anything else is rejected as a property of the input, not a transient
// condition.
package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFileType is returned when attempting to extract text
// from an unsupported or missing file extension.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var whitespaceRE = regexp.MustCompile(`\s+`)

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	".txt":  extractTxt,
	".docx": extractDocx,
	".pdf":  extractPDF,
	".csv":  extractCSV,
}

// Extract returns normalized text for the file, choosing the extractor
// by the filename's extension.
func Extract(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", fmt.Errorf("%w: filename %q has no extension", ErrUnsupportedFileType, filename)
	}

	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	raw, err := extract(data)
	if err != nil {
		return "", err
	}

	return Normalize(raw), nil
}

// Normalize collapses runs of whitespace for consistent downstream
// handling.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// WordCount returns the approximate word count for the provided text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func extractTxt(data []byte) (string, error) {
	// Lenient decoding: strip whatever is not valid UTF-8 rather than
	// rejecting the sample.
	return strings.ToValidUTF8(string(data), ""), nil
}

// extractDocx reads the main document part of the .docx zip archive and
// collects its text runs, one line per paragraph.
func extractDocx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var document *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open docx document part: %w", err)
	}
	defer func() { _ = rc.Close() }()

	decoder := xml.NewDecoder(rc)
	var builder strings.Builder
	var inText bool

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx document: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}

	return builder.String(), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	return builder.String(), nil
}

// extractCSV flattens every non-empty cell into one line each.
func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse csv: %w", err)
	}

	var cells []string
	for _, record := range records {
		for _, cell := range record {
			if trimmed := strings.TrimSpace(cell); trimmed != "" {
				cells = append(cells, trimmed)
			}
		}
	}

	return strings.Join(cells, "\n"), nil
}
