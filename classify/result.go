package classify

import "fmt"

// Result is the classification verdict for a single ingredient.
//
// Class is the confidence tier for how well retrieved monograph context
// supports the ingredient: 1 = strong support, 2 = partial support,
// 3 = insufficient or irrelevant. Zero means absent: the ingredient is
// non-medicinal and was not classified.
type Result struct {
	Class              int     `json:"class,omitempty"`
	ClassificationText string  `json:"classification_text"`
	Reasoning          string  `json:"reasoning"`
	Confidence         float64 `json:"confidence"`
	MonographFound     bool    `json:"monograph_found"`
}

// NonMedicinalResult is the fixed verdict for inert excipients. It is
// returned without consulting the cache, retrieval, or the model.
func NonMedicinalResult() Result {
	return Result{
		ClassificationText: "Non-medicinal",
		Reasoning:          "Identified as a non-medicinal excipient.",
		Confidence:         0.95,
		MonographFound:     false,
	}
}

// FallbackResult is the deterministic verdict used whenever the model is
// unavailable or its response cannot be used. The low confidence flags the
// entry for manual review downstream.
func FallbackResult(name string, monographFound bool) Result {
	return Result{
		Class:              3,
		ClassificationText: "Class 3 (Fallback)",
		Reasoning:          fmt.Sprintf("Automatic fallback: model analysis unavailable for %q. Defaulted to Class 3 for manual review.", name),
		Confidence:         0.1,
		MonographFound:     monographFound,
	}
}
