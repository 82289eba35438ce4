// Package extract pulls plain text out of uploaded resume documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")

	xmlTag     = regexp.MustCompile(`<[^>]+>`)
	blankRun   = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineRun = regexp.MustCompile(`\n{2,}`)
)

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// DocumentExtractor reads PDF documents page by page and DOCX documents from
// their main XML part.
type DocumentExtractor struct{}

// New returns a DocumentExtractor.
func New() *DocumentExtractor {
	return &DocumentExtractor{}
}

// Extract returns the document text. PDF pages are joined in order with a newline;
// a page without extractable text contributes an empty string.
func (e *DocumentExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrDocumentFormat)
	}
	if bytes.HasPrefix(data, zipMagic) {
		return extractDOCX(data)
	}
	return extractPDF(ctx, data)
}

func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf parser: %v", ErrDocumentFormat, r)
		}
	}()

	if !bytes.Contains(data[:min(len(data), 1024)], pdfMagic) {
		return "", fmt.Errorf("%w: missing pdf header", ErrDocumentFormat)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentFormat, err)
	}

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pages = append(pages, pageText(r.Page(i)))
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return t
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentFormat, err)
	}
	defer func() { _ = doc.Close() }()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = xmlTag.ReplaceAllString(content, "")
	content = unescapeXML(content)
	content = blankRun.ReplaceAllString(content, " ")
	content = newlineRun.ReplaceAllString(content, "\n")
	return strings.TrimSpace(content), nil
}

var xmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
