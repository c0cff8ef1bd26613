package extract

import (
	"regexp"
	"strings"
)

// NormalizeConfig controls how raw extracted text is cleaned before
// further processing.
type NormalizeConfig struct {
	// CollapseSpaces collapses runs of horizontal whitespace to a single
	// space. Table-parsing strategies rely on 2+ space runs as column
	// separators, so the extraction engine disables this.
	CollapseSpaces bool
	// ASCIIPunct maps typographic quotes and dashes to ASCII equivalents.
	ASCIIPunct bool
}

// DefaultNormalizeConfig returns the configuration used for knowledge-base
// text, where layout does not matter.
func DefaultNormalizeConfig() NormalizeConfig {
	return NormalizeConfig{CollapseSpaces: true, ASCIIPunct: true}
}

// LayoutNormalizeConfig preserves column whitespace so that tabular
// strategies can still split on runs of 2+ spaces.
func LayoutNormalizeConfig() NormalizeConfig {
	return NormalizeConfig{CollapseSpaces: false, ASCIIPunct: true}
}

var (
	horizontalRunRe = regexp.MustCompile(`[ \t]+`)
	trailingWSRe    = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

var asciiPunct = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'",
	"“", `"`, "”", `"`, "„", `"`,
	"–", "-", "—", "-", "−", "-",
	"…", "...",
	" ", " ",
)

// Normalize cleans raw extracted text with the default configuration.
// It is a pure function and idempotent.
func Normalize(raw string) string {
	return NormalizeWith(raw, DefaultNormalizeConfig())
}

// NormalizeWith cleans raw extracted text: line endings are unified,
// trailing whitespace is stripped, and runs of 2+ blank lines collapse to
// exactly one blank line.
func NormalizeWith(raw string, cfg NormalizeConfig) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if cfg.ASCIIPunct {
		text = asciiPunct.Replace(text)
	}

	if cfg.CollapseSpaces {
		text = horizontalRunRe.ReplaceAllString(text, " ")
	} else {
		// Tabs still become spaces so column splitting only has to deal
		// with one separator character.
		text = strings.ReplaceAll(text, "\t", "  ")
	}

	text = trailingWSRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
