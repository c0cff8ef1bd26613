package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Upstream PDF text layout wraps a single logical table row across physical
// lines: a continuation line starts with a lowercase letter, or is a lone
// short parenthetical such as a dosage-form annotation.

var (
	lonelyParenRe = regexp.MustCompile(`^\([^()]{1,24}\)$`)
	weightLabelRe = regexp.MustCompile(`(?i)\bm?c?g\s*/\s*(?:tab(?:let)?|cap(?:sule)?|unit|serving|dose)\b|\bweight\b|\bw/w\b`)

	trailingNumericRe = regexp.MustCompile(`\s+\d+(?:\.\d+)?(?:\s+\S+)*\s*$`)
	amountRe          = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([A-Za-zµ%]+)`)
)

// amountUnits are the measurement units recognized when pairing a number
// with a unit to form an amount.
var amountUnits = map[string]string{
	"mg":    "mg",
	"g":     "g",
	"mcg":   "mcg",
	"µg":    "mcg",
	"ug":    "mcg",
	"iu":    "IU",
	"%":     "%",
	"ppm":   "ppm",
	"unit":  "units",
	"units": "units",
}

// StitchLines reassembles logical table rows from physical lines. Header
// rows (a weight-per-unit label co-occurring with a percentage label) are
// dropped; continuation lines are space-joined to the previous logical line.
func StitchLines(section string) []string {
	var logical []string
	for _, raw := range strings.Split(section, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isTableHeader(line) {
			continue
		}
		if isContinuation(line) && len(logical) > 0 {
			logical[len(logical)-1] += " " + line
			continue
		}
		logical = append(logical, line)
	}
	return logical
}

// isTableHeader recognizes column-label rows by the co-occurrence of a
// weight-per-unit label and a percentage label.
func isTableHeader(line string) bool {
	return strings.Contains(line, "%") && weightLabelRe.MatchString(line)
}

// isContinuation reports whether a physical line belongs to the previous
// logical line.
func isContinuation(line string) bool {
	if line == "" {
		return false
	}
	if lonelyParenRe.MatchString(line) {
		return true
	}
	r := []rune(line)[0]
	return unicode.IsLower(r)
}

// SplitNameAmount separates an ingredient name from the numeric/measurement
// columns of a table row. The name is the text before the first column
// break (a run of 2+ spaces, a tab, or a space followed by a digit); the
// amount is the first recognized "<number> <unit>" token anywhere on the
// line, or empty when none is found.
func SplitNameAmount(line string) (name, amount string) {
	name = strings.TrimSpace(line)
	if idx := columnBreak(name); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	} else {
		// No explicit column break: strip a right-anchored numeric run so
		// "Zinc 25" still yields a bare name.
		name = strings.TrimSpace(trailingNumericRe.ReplaceAllString(name, ""))
	}
	return name, findAmount(line)
}

// columnBreak returns the byte index of the first column separator in the
// line, or -1.
func columnBreak(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			continue
		}
		if line[i] == '\t' {
			return i
		}
		if i+1 < len(line) && (line[i+1] == ' ' || line[i+1] == '\t') {
			return i
		}
		if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
			return i
		}
	}
	return -1
}

// findAmount searches a line for a number immediately followed by a known
// measurement unit and returns it in canonical "<number> <unit>" form.
func findAmount(line string) string {
	for _, m := range amountRe.FindAllStringSubmatch(line, -1) {
		if unit, ok := amountUnits[strings.ToLower(m[2])]; ok {
			return m[1] + " " + unit
		}
	}
	return ""
}
