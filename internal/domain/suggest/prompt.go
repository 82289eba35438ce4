package suggest

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/system.md
var systemPrompt string

//go:embed prompts/user.tmpl
var userPromptText string

var userPrompt = template.Must(template.New("user").Parse(userPromptText))

type promptData struct {
	Title        string
	Description  string
	Requirements string
	Score        string
	Resume       string
}

func buildPrompts(in Input) (string, string, error) {
	data := promptData{
		Title:        in.Title,
		Description:  in.Description,
		Requirements: "Not specified",
		Score:        "Not calculated",
		Resume:       in.ResumeText,
	}
	if in.Requirements != nil && strings.TrimSpace(*in.Requirements) != "" {
		data.Requirements = *in.Requirements
	}
	if in.MatchScore != nil {
		data.Score = fmt.Sprintf("%.2f%%", *in.MatchScore)
	}

	var buf bytes.Buffer
	if err := userPrompt.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(systemPrompt), buf.String(), nil
}
