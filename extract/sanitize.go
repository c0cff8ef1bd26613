package extract

import (
	"regexp"
	"strings"
)

const (
	// maxNameTokens bounds false positives from matching prose fragments
	// instead of ingredient names.
	maxNameTokens = 7
	// minNameLength rejects stray abbreviations and OCR debris.
	minNameLength = 3
)

// defaultNoiseTokens are brand names and unit-of-measure words that appear
// next to ingredient names in supplier documents but are not part of the
// name itself.
var defaultNoiseTokens = []string{
	"PharmaPure",
	"MenaQ7",
	"ppm",
	"Oil",
}

var (
	parentheticalRe = regexp.MustCompile(`\s*\([^()]*\)`)
	bracketedRe     = regexp.MustCompile(`\s*\[[^\[\]]*\]`)
	longNumberRe    = regexp.MustCompile(`\s*\b\d{4,}\b`)
	strayPunctRe    = regexp.MustCompile(`[,*:]`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// Sanitizer cleans candidate ingredient names and rejects implausible ones.
type Sanitizer struct {
	noiseRe *regexp.Regexp
}

// NewSanitizer builds a Sanitizer removing the given noise tokens as whole
// words, case-insensitively. With no tokens the default set is used.
func NewSanitizer(noise ...string) *Sanitizer {
	if len(noise) == 0 {
		noise = defaultNoiseTokens
	}
	quoted := make([]string, len(noise))
	for i, tok := range noise {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return &Sanitizer{
		noiseRe: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Sanitize cleans a candidate ingredient name. It returns ok=false when the
// cleaned candidate is implausible: more than 7 space-separated tokens, or
// shorter than 3 characters.
func (s *Sanitizer) Sanitize(candidate string) (string, bool) {
	name := candidate

	// Parenthetical qualifiers can nest (minimum-potency or
	// percentage-by-weight annotations inside brand qualifiers), so strip
	// innermost spans until fixpoint.
	for {
		next := parentheticalRe.ReplaceAllString(name, "")
		next = bracketedRe.ReplaceAllString(next, "")
		if next == name {
			break
		}
		name = next
	}

	name = s.noiseRe.ReplaceAllString(name, "")
	name = longNumberRe.ReplaceAllString(name, "")
	name = strayPunctRe.ReplaceAllString(name, "")
	name = spaceRunRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if len(name) < minNameLength {
		return "", false
	}
	if len(strings.Fields(name)) > maxNameTokens {
		return "", false
	}
	return name, true
}
