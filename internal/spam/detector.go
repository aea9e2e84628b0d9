// Package spam implements the rule-based comment spam classifier: a tiered
// indicator catalog plus four structural analyzers, combined into one score.
//
// Every function in this package is pure and safe for concurrent use.
package spam

import "fmt"

// Threshold is the score at or above which a comment is classified as spam.
const Threshold = 8

// Result is the verdict produced by Detect.
type Result struct {
	IsSpam  bool     `json:"is_spam"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

type analyzer struct {
	label  string
	fn     func(content, author string) int
	author bool
}

var analyzers = []analyzer{
	{"Content structure issues", func(content, _ string) int { return AnalyzeContent(content) }, false},
	{"URL analysis issues", func(content, _ string) int { return AnalyzeURLs(content) }, false},
	{"Author name issues", func(_, author string) int { return AnalyzeAuthor(author) }, true},
	{"Linguistic analysis issues", func(content, _ string) int { return AnalyzeLinguistics(content) }, false},
}

// Detect scores a comment body and author name. It never fails: any pair of
// strings, including empty ones, yields a result.
func Detect(content, author string) Result {
	return detect(content, author, true)
}

// DetectContent scores a body whose author is unknown. Author indicators and
// the author analyzer are skipped, so a missing name is not held against it.
func DetectContent(content string) Result {
	return detect(content, "", false)
}

func detect(content, author string, withAuthor bool) Result {
	score, reasons := ScoreAgainstCatalog(content, author)
	if reasons == nil {
		reasons = []string{}
	}

	for _, a := range analyzers {
		if a.author && !withAuthor {
			continue
		}
		sub := a.fn(content, author)
		if sub > 0 {
			score += sub
			reasons = append(reasons, fmt.Sprintf("%s (score: %d)", a.label, sub))
		}
	}

	return Result{
		IsSpam:  score >= Threshold,
		Score:   score,
		Reasons: reasons,
	}
}
