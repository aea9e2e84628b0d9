package spam

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Tier weights
const (
	WeightCritical = 10
	WeightHigh     = 5
	WeightMedium   = 3
	WeightLow      = 1
)

// tier is one severity bucket of the indicator catalog. The matcher is built
// once at init and only read afterwards.
type tier struct {
	label          string
	weight         int
	keywords       []string
	patterns       []*regexp.Regexp
	authorKeywords bool
	authorPatterns bool
	matcher        *ahocorasick.Matcher
}

func newTier(label string, weight int, keywords, patterns []string, authorKeywords, authorPatterns bool) *tier {
	t := &tier{
		label:          label,
		weight:         weight,
		keywords:       keywords,
		authorKeywords: authorKeywords,
		authorPatterns: authorPatterns,
		matcher:        ahocorasick.NewStringMatcher(keywords),
	}
	for _, p := range patterns {
		t.patterns = append(t.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return t
}

// keywordHits returns the catalog indexes of every keyword contained in the
// lowercased text, in catalog order and without duplicates.
func (t *tier) keywordHits(lower string) []int {
	if lower == "" || len(t.keywords) == 0 {
		return nil
	}
	hits := t.matcher.MatchThreadSafe([]byte(lower))
	if len(hits) == 0 {
		return nil
	}
	sort.Ints(hits)

	unique := hits[:1]
	for _, h := range hits[1:] {
		if h != unique[len(unique)-1] {
			unique = append(unique, h)
		}
	}
	return unique
}

var catalog = []*tier{
	newTier("Critical spam", WeightCritical,
		[]string{
			// pharmaceutical
			"viagra", "cialis", "levitra", "buy pills", "prescription drugs", "no prescription",
			"pharmacy online", "cheap meds", "discount pharmacy", "rx online",
			// financial scams
			"get rich quick", "make money fast", "earn $", "guaranteed income", "financial freedom",
			"work from home", "passive income", "investment opportunity", "double your money",
			"no risk investment", "guaranteed profit", "bitcoin investment", "crypto mining",
			// illegal activities
			"buy drugs", "sell drugs", "drug dealer", "weed dealer", "cocaine", "heroin",
			"fake id", "fake passport", "stolen credit", "hacked account", "counterfeit",
			// adult
			"escort service", "adult dating", "cam girls", "xxx videos", "porn site",
			// advance-fee and prize scams
			"nigerian prince", "inheritance money", "lottery winner", "claim prize",
			"congratulations winner", "selected recipient", "tax refund",
		},
		[]string{
			`\b(?:viagra|cialis)\b.*(?:cheap|buy|order)`,
			`(?:make|earn).*\$\d+.*(?:fast|quick|easy|guaranteed)`,
			`(?:buy|sell).*(?:drugs|weed|cocaine|pills).*(?:online|cheap|quality)`,
			`(?:click|visit).*(?:link|website).*(?:now|today|immediately)`,
			`\b(?:guaranteed|100%).*(?:profit|income|return)`,
		},
		true, true,
	),
	newTier("High-risk", WeightHigh,
		[]string{
			"casino", "gambling", "poker online", "slots", "jackpot", "lottery ticket",
			"weight loss", "lose weight", "diet pills", "miracle cure", "anti aging",
			"credit repair", "debt relief", "loan approval", "bad credit ok",
			"insurance claim", "accident lawyer", "compensation claim",
			"mlm", "pyramid scheme", "network marketing", "be your own boss",
			"unlimited earning", "residual income", "join our team",
			"replica watches", "designer replica", "knockoff", "bootleg",
		},
		[]string{
			`(?:win|won).*(?:\$|money|prize|cash)`,
			`(?:limited|special).*(?:offer|deal|price).*(?:today|now)`,
			`(?:call|text).*(?:now|today).*\d{3}[-.]?\d{3}[-.]?\d{4}`,
			`(?:visit|check).*(?:website|link|site)`,
		},
		true, true,
	),
	newTier("Medium-risk", WeightMedium,
		[]string{
			"free trial", "no cost", "risk free", "money back", "satisfaction guaranteed",
			"as seen on tv", "celebrity endorsed", "doctor recommended", "clinically proven",
			"secret formula", "breakthrough", "revolutionary", "amazing results",
			"limited time", "act now", "dont wait", "hurry up", "expires soon",
			"check this out", "you wont believe", "shocking truth", "they dont want you",
		},
		[]string{
			`\b(?:free|no cost).*(?:shipping|trial|consultation)`,
			`(?:order|buy|purchase).*(?:now|today)`,
			`(?:lowest|best|cheapest).*price`,
		},
		true, false,
	),
	newTier("Low-risk", WeightLow,
		[]string{
			"special offer", "discount", "sale", "promotion", "deal",
			"website", "link", "visit", "check out", "learn more",
		},
		nil,
		false, false,
	),
}

// ScoreAgainstCatalog matches the body and author against every tier of the
// indicator catalog. Body and author are scanned independently, so the same
// keyword may score once for each.
func ScoreAgainstCatalog(body, author string) (int, []string) {
	score := 0
	var reasons []string

	lowerBody := strings.ToLower(body)
	lowerAuthor := strings.ToLower(author)

	for _, t := range catalog {
		for _, idx := range t.keywordHits(lowerBody) {
			score += t.weight
			reasons = append(reasons, fmt.Sprintf("%s keyword: %q", t.label, t.keywords[idx]))
		}
		if t.authorKeywords {
			for _, idx := range t.keywordHits(lowerAuthor) {
				score += t.weight
				reasons = append(reasons, fmt.Sprintf("%s keyword in author: %q", t.label, t.keywords[idx]))
			}
		}

		for _, p := range t.patterns {
			if p.MatchString(body) {
				score += t.weight
				reasons = append(reasons, t.label+" pattern detected")
			}
			if t.authorPatterns && p.MatchString(author) {
				score += t.weight
				reasons = append(reasons, t.label+" pattern detected in author")
			}
		}
	}

	return score, reasons
}
