package spam

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Structural thresholds
const (
	minContentLength = 5
	maxContentLength = 10000
	minAuthorLength  = 2
	maxAuthorLength  = 50
	repeatRunLength  = 6
	minCapsWordLen   = 3
)

const specialChars = `!@#$%^&*()_+=[]{};':"\|,.<>/?`

var (
	urlRegex          = regexp.MustCompile(`(?i)https?://[^\s\x0b\p{Z}\x{feff}]+`)
	punctuationRegex  = regexp.MustCompile(`!{3,}|\?{3,}|\.{4,}`)
	handleNumberRegex = regexp.MustCompile(`(?i)^[a-z]+[0-9]+$`)
	digitsOnlyRegex   = regexp.MustCompile(`^[0-9]+$`)

	suspiciousDomains = []string{
		"bit.ly", "tinyurl", "t.co", "goo.gl", "ow.ly", "short.link", "tiny.cc",
		".tk", ".ml", ".ga", ".cf",
		"blogspot", "wordpress.com", "wix.com",
	}

	suspiciousNames = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:admin|administrator|moderator|webmaster|root|test|guest)$`),
		regexp.MustCompile(`(?i)^(?:bot|spam|fake|temp|anonymous)$`),
		regexp.MustCompile(`(?i)(?:dealer|seller|buyer|casino|porn|xxx|sex)`),
	}
)

// charStats counts ASCII character classes of s.
type charStats struct {
	length  int
	upper   int
	letters int
	digits  int
	special int
}

func countChars(s string) charStats {
	var st charStats
	for _, r := range s {
		st.length++
		switch {
		case r >= 'A' && r <= 'Z':
			st.upper++
			st.letters++
		case r >= 'a' && r <= 'z':
			st.letters++
		case r >= '0' && r <= '9':
			st.digits++
		case strings.ContainsRune(specialChars, r):
			st.special++
		}
	}
	return st
}

// ratio returns n/total, or 0 for an empty input.
func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// hasRepeatedRun reports whether any character other than a line break
// repeats n or more times in a row.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == '\n' || r == '\r' {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

// AnalyzeContent scores the shape of a comment body: length, capitalisation,
// punctuation density, repeated characters and digit density.
func AnalyzeContent(content string) int {
	score := 0
	st := countChars(content)

	if st.length < minContentLength {
		score += WeightHigh
	}
	if st.length > maxContentLength {
		score += WeightMedium
	}

	upperRatio := ratio(st.upper, st.length)
	if upperRatio > 0.8 {
		score += WeightHigh
	} else if upperRatio > 0.5 {
		score += WeightMedium
	}

	if ratio(st.special, st.length) > 0.3 {
		score += WeightMedium
	}

	if hasRepeatedRun(content, repeatRunLength) {
		score += WeightMedium
	}
	if punctuationRegex.MatchString(content) {
		score += WeightLow
	}

	if ratio(st.digits, st.length) > 0.4 {
		score += WeightMedium
	}

	return score
}

// ExtractURLs returns every http(s) URL token of the text.
func ExtractURLs(content string) []string {
	return urlRegex.FindAllString(content, -1)
}

// AnalyzeURLs scores link count and links to shorteners or free hosts.
func AnalyzeURLs(content string) int {
	score := 0
	urls := ExtractURLs(content)

	switch {
	case len(urls) > 1:
		score += WeightHigh
	case len(urls) == 1:
		score += WeightLow
	}

	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, domain := range suspiciousDomains {
			if strings.Contains(lower, domain) {
				score += WeightMedium
				break
			}
		}
	}

	return score
}

// AnalyzeAuthor scores the display name of the commenter.
func AnalyzeAuthor(author string) int {
	score := 0
	st := countChars(author)

	if st.length < minAuthorLength {
		score += WeightHigh
	}
	if st.length > maxAuthorLength {
		score += WeightMedium
	}

	if handleNumberRegex.MatchString(author) {
		score += WeightMedium
	}
	if digitsOnlyRegex.MatchString(author) {
		score += WeightHigh
	}
	if st.letters == 0 {
		score += WeightHigh
	}
	if float64(st.digits) > float64(st.length)*0.5 {
		score += WeightMedium
	}

	for _, p := range suspiciousNames {
		if p.MatchString(author) {
			score += WeightHigh
			break
		}
	}

	return score
}

// AnalyzeLinguistics scores word repetition, average word length and
// shouting. Text without any words is scored as high risk.
func AnalyzeLinguistics(content string) int {
	words := strings.Fields(strings.ToLower(content))
	if len(words) == 0 {
		return WeightHigh
	}

	score := 0

	unique := make(map[string]struct{}, len(words))
	totalLen := 0
	for _, w := range words {
		unique[w] = struct{}{}
		totalLen += utf8.RuneCountInString(w)
	}

	repetition := float64(len(words)-len(unique)) / float64(len(words))
	if repetition > 0.5 {
		score += WeightMedium
	}

	avgLen := float64(totalLen) / float64(len(words))
	if avgLen < 2 || avgLen > 15 {
		score += WeightLow
	}

	caps := 0
	for _, w := range strings.Fields(content) {
		if utf8.RuneCountInString(w) >= minCapsWordLen && w == strings.ToUpper(w) && countChars(w).upper > 0 {
			caps++
		}
	}
	if float64(caps) > float64(len(words))*0.3 {
		score += WeightMedium
	}

	return score
}
