package extract_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/resumatch/internal/domain/extract"
	. "github.com/smartystreets/goconvey/convey"
)

// buildPDF renders a minimal PDF with one page per entry. An empty entry
// produces a page without a content stream.
func buildPDF(pages ...string) []byte {
	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, "") // page tree, filled below
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, text := range pages {
		pageNum := len(objs) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		if text == "" {
			objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> >>")
			continue
		}
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1))
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	kidList := ""
	for i, k := range kids {
		if i > 0 {
			kidList += " "
		}
		kidList += k
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kidList, len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func buildDOCX(paragraphs ...string) []byte {
	var body string
	for _, p := range paragraphs {
		body += "<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>"
	}
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	ctx := context.Background()
	e := extract.New()

	Convey("Given a PDF with text on every page", t, func() {
		data := buildPDF("Experienced Golang engineer", "Kubernetes operator")

		Convey("Then pages are extracted in order", func() {
			text, err := e.Extract(ctx, data)
			So(err, ShouldBeNil)
			So(text, ShouldContainSubstring, "Golang")
			So(text, ShouldContainSubstring, "Kubernetes")
			So(bytes.Index([]byte(text), []byte("Golang")), ShouldBeLessThan, bytes.Index([]byte(text), []byte("Kubernetes")))
		})
	})

	Convey("Given a PDF whose second page has no text", t, func() {
		data := buildPDF("Resume summary", "")

		Convey("Then the empty page contributes nothing and extraction succeeds", func() {
			text, err := e.Extract(ctx, data)
			So(err, ShouldBeNil)
			So(text, ShouldContainSubstring, "Resume summary")
		})
	})

	Convey("Given a PDF with no text at all", t, func() {
		data := buildPDF("")

		Convey("Then the result is empty, not an error", func() {
			text, err := e.Extract(ctx, data)
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "")
		})
	})
}

func TestExtractDOCX(t *testing.T) {
	Convey("Given a DOCX document", t, func() {
		data := buildDOCX("Jane Doe", "Senior Go developer &amp; mentor")

		Convey("Then paragraphs come back as lines without markup", func() {
			text, err := extract.New().Extract(context.Background(), data)
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "Jane Doe\nSenior Go developer & mentor")
		})
	})
}

func TestExtractInvalid(t *testing.T) {
	ctx := context.Background()
	e := extract.New()

	Convey("Given payloads that are not documents", t, func() {
		cases := map[string][]byte{
			"empty":      nil,
			"plain text": []byte("just some words"),
			"broken pdf": []byte("%PDF-1.4\nthis is not really a pdf"),
			"broken zip": []byte("PK\x03\x04garbage"),
		}
		for name, data := range cases {
			_, err := e.Extract(ctx, data)
			So(errors.Is(err, extract.ErrDocumentFormat), ShouldBeTrue)
			So(name, ShouldNotBeEmpty)
		}
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then extraction stops", func() {
			_, err := e.Extract(cctx, buildPDF("x"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
