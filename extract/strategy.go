package extract

import (
	"fmt"
	"log"
)

// ParseFunc recognizes one document layout family and extracts its
// ingredient list. It returns an empty slice when the layout does not
// match; it never fails.
type ParseFunc func(text string) []Ingredient

// Strategy is a named parsing strategy. Strategies are plain function
// values held in an ordered list, so reordering or adding one is a data
// change rather than a structural one, and each is independently testable
// against a fixture string.
type Strategy struct {
	Name  string
	Parse ParseFunc
}

// Strategy names, usable in configuration to reorder the cascade.
const (
	StrategyCompositionTable = "composition_table"
	StrategyFormulation      = "formulation"
	StrategyInspectionForm   = "inspection_form"
	StrategyStandardInfo     = "standard_info"
	StrategyGenericTitle     = "generic_title"
)

// DefaultStrategies returns the reference cascade in priority order,
// highest confidence first.
func DefaultStrategies(s *Sanitizer) []Strategy {
	if s == nil {
		s = NewSanitizer()
	}
	return []Strategy{
		{StrategyCompositionTable, compositionTable(s)},
		{StrategyFormulation, formulation(s)},
		{StrategyInspectionForm, inspectionForm(s)},
		{StrategyStandardInfo, standardInfo(s)},
		{StrategyGenericTitle, genericTitle(s)},
	}
}

// StrategiesFromNames builds a cascade in the given order. Unknown names
// are an error so configuration typos surface at startup rather than as
// silently missing strategies.
func StrategiesFromNames(names []string, s *Sanitizer) ([]Strategy, error) {
	byName := make(map[string]Strategy)
	for _, st := range DefaultStrategies(s) {
		byName[st.Name] = st
	}
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		st, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown extraction strategy %q", name)
		}
		out = append(out, st)
	}
	return out, nil
}

// Engine runs an ordered list of parsing strategies over a document and
// commits to the first one that yields a non-empty result.
type Engine struct {
	strategies []Strategy
}

// NewEngine creates an extraction engine with an explicit strategy order.
func NewEngine(strategies []Strategy) *Engine {
	return &Engine{strategies: strategies}
}

// NewDefaultEngine creates an engine with the reference strategy order and
// the default sanitizer.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultStrategies(nil))
}

// Extract normalizes the document text and evaluates strategies strictly
// in priority order, returning the deduplicated output of the first
// strategy with a non-empty result along with that strategy's name. Later
// strategies never run once one has matched. An empty result with an empty
// strategy name is a valid outcome, not an error.
func (e *Engine) Extract(text string) ([]Ingredient, string) {
	if text == "" {
		return nil, ""
	}

	// Column runs are load-bearing for the tabular strategies, so the
	// engine uses the layout-preserving normalization.
	text = NormalizeWith(text, LayoutNormalizeConfig())

	for _, st := range e.strategies {
		ingredients := st.Parse(text)
		if len(ingredients) == 0 {
			continue
		}
		log.Printf("extract: strategy %s matched with %d ingredients", st.Name, len(ingredients))
		return Dedupe(ingredients), st.Name
	}

	log.Printf("extract: no strategy matched, no ingredients found")
	return nil, ""
}
