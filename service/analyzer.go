package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"monoscan/classify"
	"monoscan/extract"
	"monoscan/parser"
)

// highConfidenceThreshold is the confidence above which a verdict counts
// as high-confidence in the summary.
const highConfidenceThreshold = 0.7

// IngredientAnalysis pairs one extracted ingredient with its
// classification verdict.
type IngredientAnalysis struct {
	Ingredient extract.Ingredient `json:"ingredient"`
	Verdict    classify.Result    `json:"verdict"`
}

// Summary aggregates an analysis for at-a-glance review.
type Summary struct {
	Total             int         `json:"total"`
	Medicinal         int         `json:"medicinal"`
	NonMedicinal      int         `json:"non_medicinal"`
	MonographsFound   int         `json:"monographs_found"`
	HighConfidence    int         `json:"high_confidence"`
	ClassDistribution map[int]int `json:"class_distribution"`
}

// Analysis is the full result of analyzing one document.
type Analysis struct {
	File        string               `json:"file"`
	Title       string               `json:"title"`
	Strategy    string               `json:"strategy"`
	Ingredients []IngredientAnalysis `json:"ingredients"`
	Summary     Summary              `json:"summary"`
}

// Analyzer runs the full pipeline for one document: parse, extract the
// ingredient list, classify every ingredient.
type Analyzer struct {
	registry   *parser.Registry
	engine     *extract.Engine
	classifier *classify.Classifier
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(registry *parser.Registry, engine *extract.Engine, classifier *classify.Classifier) *Analyzer {
	return &Analyzer{
		registry:   registry,
		engine:     engine,
		classifier: classifier,
	}
}

// AnalyzeFile analyzes one document. Unreadable or unrecognized input
// degrades to an empty, well-formed analysis rather than an error; only
// cache persistence failures surface as errors.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	analysis := &Analysis{
		File:        filepath.Base(path),
		Ingredients: []IngredientAnalysis{},
	}

	doc, err := a.registry.ParseFile(ctx, path)
	if err != nil {
		log.Printf("analyzer: failed to parse %s: %v", path, err)
		analysis.Summary = buildSummary(nil)
		return analysis, nil
	}
	analysis.Title = doc.Title

	ingredients, strategy := a.engine.Extract(doc.Content)
	if len(ingredients) == 0 {
		log.Printf("analyzer: no ingredient list recognized in %s", path)
	}
	analysis.Strategy = strategy

	for _, ing := range ingredients {
		verdict, err := a.classifier.Classify(ctx, ing)
		if err != nil {
			return nil, fmt.Errorf("failed to classify %q: %w", ing.Name, err)
		}
		analysis.Ingredients = append(analysis.Ingredients, IngredientAnalysis{
			Ingredient: ing,
			Verdict:    verdict,
		})
	}

	analysis.Summary = buildSummary(analysis.Ingredients)
	return analysis, nil
}

// buildSummary computes the aggregate counts for a set of verdicts.
func buildSummary(items []IngredientAnalysis) Summary {
	s := Summary{
		Total:             len(items),
		ClassDistribution: make(map[int]int),
	}
	for _, item := range items {
		if item.Ingredient.Type == extract.Medicinal {
			s.Medicinal++
		} else {
			s.NonMedicinal++
		}
		if item.Verdict.MonographFound {
			s.MonographsFound++
		}
		if item.Verdict.Confidence > highConfidenceThreshold {
			s.HighConfidence++
		}
		if item.Verdict.Class > 0 {
			s.ClassDistribution[item.Verdict.Class]++
		}
	}
	return s
}
