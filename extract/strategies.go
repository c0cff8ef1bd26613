package extract

import (
	"regexp"
	"strings"
)

var (
	compositionHeaderRe = regexp.MustCompile(`(?i)\borigin and composition\b`)
	columnSplitRe       = regexp.MustCompile(`\s{2,}`)

	activeLabelRe   = regexp.MustCompile(`(?i)active\s+ingredients?\s*:`)
	inactiveLabelRe = regexp.MustCompile(`(?i)inactive\s+ingredients?\s*:`)
	totalWeightRe   = regexp.MustCompile(`(?i)total\s+weight\s*:`)

	itemNameRe = regexp.MustCompile(`(?im)^\s*item\s+name\s*[:\s]\s*(.+)$`)

	coaTitleRe  = regexp.MustCompile(`(?i)certificate of analysis`)
	testsRowRe  = regexp.MustCompile(`(?im)^\s*tests\s*$`)
	labeledEdge = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*product\s+name\s*[:\s]+(.+)$`),
		regexp.MustCompile(`(?im)^\s*material\s+description\s*:\s*(.+)$`),
		regexp.MustCompile(`(?im)^\s*description\s*[:\s]+(.+)$`),
	}

	titleKeywords = []string{
		"certificate of analysis",
		"product specification",
		"specification sheet",
		"standard information",
		"technical data sheet",
	}

	trivialLineRe = regexp.MustCompile(`^[\d\W]*$`)
)

// compositionTable parses structured composition-table sections introduced
// by an "Origin and Composition" header. The header row is skipped and the
// first whitespace-delimited field of each remaining row is the candidate
// name, typed medicinal.
func compositionTable(s *Sanitizer) ParseFunc {
	return func(text string) []Ingredient {
		lines := strings.Split(text, "\n")
		start := -1
		for i, line := range lines {
			if compositionHeaderRe.MatchString(line) {
				start = i + 1
				break
			}
		}
		if start < 0 || start >= len(lines) {
			return nil
		}

		// The section runs until the next blank line.
		end := len(lines)
		for i := start; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "" {
				end = i
				break
			}
		}

		rows := StitchLines(strings.Join(lines[start:end], "\n"))
		if len(rows) == 0 {
			return nil
		}

		// The first row is the column header unless it already carries an
		// amount, which happens when StitchLines dropped the header.
		if findAmount(rows[0]) == "" {
			rows = rows[1:]
		}

		var out []Ingredient
		for _, row := range rows {
			first := columnSplitRe.Split(row, 2)[0]
			name, ok := s.Sanitize(first)
			if !ok {
				continue
			}
			out = append(out, Ingredient{
				Name:   name,
				Amount: findAmount(row),
				Type:   Medicinal,
			})
		}
		return out
	}
}

// formulation parses documents with explicit "Active Ingredients:" and
// "Inactive Ingredients:" sections. Active lines are typed medicinal,
// inactive lines non_medicinal; restatements of the labels are skipped.
func formulation(s *Sanitizer) ParseFunc {
	return func(text string) []Ingredient {
		active := activeLabelRe.FindStringIndex(text)
		if active == nil {
			return nil
		}

		rest := text[active[1]:]
		activeBlock := rest
		var inactiveBlock string
		if loc := inactiveLabelRe.FindStringIndex(rest); loc != nil {
			activeBlock = rest[:loc[0]]
			inactiveBlock = rest[loc[1]:]
		}
		activeBlock = cutAt(activeBlock, totalWeightRe)
		inactiveBlock = cutAt(inactiveBlock, totalWeightRe)

		out := parseFormulationBlock(s, activeBlock, Medicinal)
		out = append(out, parseFormulationBlock(s, inactiveBlock, NonMedicinal)...)
		return out
	}
}

// cutAt truncates text at the first match of re.
func cutAt(text string, re *regexp.Regexp) string {
	if loc := re.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

func parseFormulationBlock(s *Sanitizer, block string, typ IngredientType) []Ingredient {
	var out []Ingredient
	for _, row := range StitchLines(block) {
		lower := strings.ToLower(row)
		if strings.HasPrefix(lower, "active") || strings.HasPrefix(lower, "inactive") {
			continue
		}
		candidate, amount := SplitNameAmount(row)
		name, ok := s.Sanitize(candidate)
		if !ok {
			continue
		}
		out = append(out, Ingredient{Name: name, Amount: amount, Type: typ})
	}
	return out
}

// inspectionForm parses intake/inspection forms carrying a single labeled
// "Item Name" field. It yields at most one ingredient.
func inspectionForm(s *Sanitizer) ParseFunc {
	return func(text string) []Ingredient {
		m := itemNameRe.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		value := m[1]
		// The form packs qualifiers after the name in parentheses; the
		// name is everything before the first one.
		if idx := strings.Index(value, "("); idx > 0 {
			value = value[:idx]
		}
		candidate, _ := SplitNameAmount(value)
		name, ok := s.Sanitize(candidate)
		if !ok {
			return nil
		}
		return []Ingredient{{Name: name, Amount: findAmount(m[1]), Type: Medicinal}}
	}
}

// standardInfo parses certificate-of-analysis and standard-information
// documents: keyword-labeled fields first ("Product Name:", "Material
// Description:", "Description:"), then the line following a
// "CERTIFICATE OF ANALYSIS" title, then the first row of a TESTS table.
// It yields at most one ingredient and stops at the first match.
func standardInfo(s *Sanitizer) ParseFunc {
	return func(text string) []Ingredient {
		for _, re := range labeledEdge {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if name, ok := s.Sanitize(m[1]); ok {
				return []Ingredient{{Name: name, Type: Medicinal}}
			}
		}

		if !coaTitleRe.MatchString(text) {
			return nil
		}
		lines := strings.Split(text, "\n")
		if name, ok := lineAfter(s, lines, coaTitleRe); ok {
			return []Ingredient{{Name: name, Type: Medicinal}}
		}
		if name, ok := lineAfter(s, lines, testsRowRe); ok {
			return []Ingredient{{Name: name, Type: Medicinal}}
		}
		return nil
	}
}

// genericTitle is the lowest-confidence fallback: it scans for known
// document-title keywords and takes the next non-trivial line as the
// ingredient name.
func genericTitle(s *Sanitizer) ParseFunc {
	return func(text string) []Ingredient {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lower := strings.ToLower(line)
			for _, kw := range titleKeywords {
				if !strings.Contains(lower, kw) {
					continue
				}
				candidate, ok := nextNonTrivial(lines, i+1)
				if !ok {
					return nil
				}
				if name, ok := s.Sanitize(candidate); ok {
					return []Ingredient{{Name: name, Type: Medicinal}}
				}
				return nil
			}
		}
		return nil
	}
}

// lineAfter sanitizes the first non-trivial line following the line
// matching re.
func lineAfter(s *Sanitizer, lines []string, re *regexp.Regexp) (string, bool) {
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		candidate, ok := nextNonTrivial(lines, i+1)
		if !ok {
			return "", false
		}
		return s.Sanitize(candidate)
	}
	return "", false
}

// nextNonTrivial returns the first line at or after index i that carries
// something other than digits and punctuation.
func nextNonTrivial(lines []string, i int) (string, bool) {
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if len(line) < minNameLength || trivialLineRe.MatchString(line) {
			continue
		}
		return line, true
	}
	return "", false
}
