package loadgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// RoleSkills are the requirements of the generated role; resumes draw from
// these and from noiseSkills in varying proportions.
var RoleSkills = []string{"Go", "Kubernetes", "PostgreSQL", "gRPC", "Prometheus", "Kafka", "Terraform"}

var noiseSkills = []string{"Photoshop", "Accounting", "Welding", "Pottery", "Choreography", "Sommelier", "Calligraphy"}

// GenerateResumes builds n DOCX resumes with a spread of relevant skills.
func GenerateResumes(n int, seed int64) ([]Resume, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
	out := make([]Resume, 0, n)
	for i := 0; i < n; i++ {
		relevant := rng.Intn(len(RoleSkills) + 1)
		skills := pick(rng, RoleSkills, relevant)
		skills = append(skills, pick(rng, noiseSkills, len(RoleSkills)-relevant)...)

		paragraphs := []string{
			fmt.Sprintf("Candidate %d", i+1),
			"Experience with " + strings.Join(skills, ", ") + ".",
			fmt.Sprintf("%d years in the industry.", 1+rng.Intn(15)),
		}
		content, err := BuildDOCX(paragraphs...)
		if err != nil {
			return nil, err
		}
		out = append(out, Resume{
			Filename: "resume-" + uuid.NewString() + ".docx",
			Skills:   skills,
			Content:  content,
		})
	}
	return out, nil
}

func pick(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = from[j]
	}
	return out
}

// BuildDOCX writes a minimal word-processing package holding one run per paragraph.
func BuildDOCX(paragraphs ...string) ([]byte, error) {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + html.EscapeString(p) + "</w:t></w:r></w:p>")
	}
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`},
		{"word/_rels/document.xml.rels", `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`},
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("docx %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("docx %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx close: %w", err)
	}
	return buf.Bytes(), nil
}
