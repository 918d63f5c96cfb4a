// Package textfilter tidies model-written NPC speech before it reaches a
// speech bubble.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxLen is the longest line a bubble shows.
const DefaultMaxLen = 160

// Town residents keep it family friendly.
var replacements = map[string]string{
	"fuck":      "fudge",
	"fucking":   "flipping",
	"shit":      "shoot",
	"damn":      "dang",
	"goddamn":   "gosh-dang",
	"hell":      "heck",
	"ass":       "butt",
	"asshole":   "jerk",
	"bitch":     "jerk",
	"bastard":   "jerk",
	"crap":      "crud",
	"bullshit":  "baloney",
	"dumbass":   "dummy",
	"dickhead":  "jerk",
	"douchebag": "jerk",
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	// *waves* and _sighs_ style stage directions
	stageDirection = regexp.MustCompile(`[*_]+([^*_]+)[*_]+`)
	title          = cases.Title(language.English)
)

// Speech cleans lines of dialogue and thoughts.
type Speech struct {
	maxLen int
	words  *regexp.Regexp
}

// NewSpeech returns a filter that truncates to maxLen runes. maxLen <= 0
// uses DefaultMaxLen.
func NewSpeech(maxLen int) *Speech {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, regexp.QuoteMeta(w))
	}
	return &Speech{
		maxLen: maxLen,
		words:  regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`),
	}
}

// Clean strips wrapping quotes and stage-direction markup, collapses
// whitespace, softens profanity and truncates at a word boundary.
func (s *Speech) Clean(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"“”`)
	text = stageDirection.ReplaceAllString(text, "($1)")
	text = whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	text = s.words.ReplaceAllStringFunc(text, func(match string) string {
		return preserveCase(match, replacements[strings.ToLower(match)])
	})
	return truncate(text, s.maxLen)
}

// Profane reports whether text contains a word Clean would replace.
func (s *Speech) Profane(text string) bool {
	return s.words.MatchString(text)
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	cut := string(runes[:maxLen-1])
	if i := strings.LastIndexByte(cut, ' '); i > maxLen/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

// preserveCase applies the case pattern of original to replacement.
func preserveCase(original, replacement string) string {
	switch {
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return replacement
	case title.String(strings.ToLower(original)) == original:
		return title.String(replacement)
	}

	out := []rune(replacement)
	orig := []rune(original)
	for i := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}
