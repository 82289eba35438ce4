package suggest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/okian/resumatch/internal/domain/model"
)

// FallbackMarker is the RawResponse of every keyword based suggestion.
const FallbackMarker = "Fallback analysis (LLM not configured or unavailable - set RESUMATCH_LLM_API_KEY to enable model-powered suggestions)"

const (
	maxKeywords   = 10
	minKeywordLen = 5
)

var (
	fallbackStrengths = []string{
		"Resume contains relevant keywords",
		"Professional experience is documented",
	}
	fallbackWeaknesses = []string{
		"Some job-specific keywords may be missing",
		"Consider tailoring resume more to job requirements",
	}
	fallbackSuggestions = []string{
		"Add missing keywords naturally into your resume",
		"Highlight relevant experience more prominently",
		"Quantify achievements where possible",
		"Align skills section with job requirements",
		"Customize summary/objective for this role",
	}
)

// Fallback builds suggestions from a keyword comparison alone.
func Fallback(in Input) model.Suggestion {
	var score float64
	if in.MatchScore != nil {
		score = *in.MatchScore
	}
	return model.Suggestion{
		Strengths:     append([]string(nil), fallbackStrengths...),
		Weaknesses:    append([]string(nil), fallbackWeaknesses...),
		Suggestions:   append([]string(nil), fallbackSuggestions...),
		KeywordsToAdd: MissingKeywords(in),
		OverallAssessment: fmt.Sprintf("Based on keyword analysis, the resume has a %.1f%% match score. "+
			"Consider incorporating more job-specific terminology and highlighting relevant experience.", score),
		MatchScore:  in.MatchScore,
		RawResponse: FallbackMarker,
	}
}

// MissingKeywords lists job words of five or more characters absent from the
// resume, in order of first appearance.
func MissingKeywords(in Input) []string {
	requirements := ""
	if in.Requirements != nil {
		requirements = *in.Requirements
	}
	job := strings.ToLower(in.Title + " " + in.Description + " " + requirements)

	have := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(in.ResumeText)) {
		have[w] = struct{}{}
	}

	out := make([]string, 0, maxKeywords)
	for _, w := range strings.Fields(job) {
		if len(out) == maxKeywords {
			break
		}
		if utf8.RuneCountInString(w) < minKeywordLen {
			continue
		}
		if _, ok := have[w]; ok {
			continue
		}
		have[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
