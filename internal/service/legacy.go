package service

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// legacyNamespace scopes the deterministic ids of imported legacy comments,
// so re-running an import maps each legacy row to the same comment.
var legacyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("newsroom-comments-api/legacy-comment"))

// legacyCommentID returns the stable comment id of a legacy comment
func legacyCommentID(legacyID string) string {
	return uuid.NewSHA1(legacyNamespace, []byte(legacyID)).String()
}

// Mis-decoded UTF-8 quotes come first so the bare prefix does not win.
var mojibakeReplacer = strings.NewReplacer(
	"â€™", "'",
	"â€œ", `"`,
	"â€", `"`,
)

var typographicReplacer = strings.NewReplacer(
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u00a0", " ",
)

var blockBreakRegex = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)

// CleanLegacyContent turns a legacy comment body into plain text: markup is
// stripped, entities are decoded and curly or mis-encoded quotes become ASCII.
func CleanLegacyContent(raw string) string {
	if raw == "" {
		return ""
	}

	text := mojibakeReplacer.Replace(raw)
	text = blockBreakRegex.ReplaceAllString(text, "$0 ")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err == nil {
		text = doc.Text()
	}

	text = typographicReplacer.Replace(text)
	return strings.TrimSpace(text)
}

var (
	legacyEntityRegex = regexp.MustCompile(`&#(8217|8220|8221|038);|8217|8220|8221|038`)
	repeatedDashRegex = regexp.MustCompile(`-{2,}`)
)

// NormalizeLegacySlug strips the encoded punctuation the legacy platform
// left in slugs and collapses the dashes around it.
func NormalizeLegacySlug(slug string) string {
	if slug == "" {
		return ""
	}
	s := legacyEntityRegex.ReplaceAllString(slug, "")
	s = repeatedDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}

// articleResolver maps legacy post slugs to article ids
type articleResolver struct {
	bySlug map[string]string
}

func newArticleResolver(slugIndex map[string]string) *articleResolver {
	r := &articleResolver{bySlug: make(map[string]string, len(slugIndex))}
	for slug, id := range slugIndex {
		r.bySlug[slug] = id
	}
	// exact slugs win over normalized aliases
	for slug, id := range slugIndex {
		normalized := NormalizeLegacySlug(slug)
		if _, taken := r.bySlug[normalized]; !taken {
			r.bySlug[normalized] = id
		}
	}
	return r
}

func (r *articleResolver) resolve(slug string) (string, bool) {
	if slug == "" {
		return "", false
	}
	if id, ok := r.bySlug[slug]; ok {
		return id, true
	}
	id, ok := r.bySlug[NormalizeLegacySlug(slug)]
	return id, ok
}
