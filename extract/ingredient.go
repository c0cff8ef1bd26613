package extract

import "strings"

// IngredientType marks whether an ingredient is an active component or an
// inert excipient.
type IngredientType string

const (
	Medicinal    IngredientType = "medicinal"
	NonMedicinal IngredientType = "non_medicinal"
)

// Ingredient is a single entry extracted from a document.
type Ingredient struct {
	Name   string         `json:"name"`
	Amount string         `json:"amount,omitempty"`
	Type   IngredientType `json:"type"`
}

// Key returns the identity used for de-duplication: the lower-cased,
// trimmed name.
func (i Ingredient) Key() string {
	return strings.ToLower(strings.TrimSpace(i.Name))
}

// Dedupe removes entries whose names are case-insensitively equal, keeping
// the first occurrence and preserving order.
func Dedupe(in []Ingredient) []Ingredient {
	seen := make(map[string]struct{}, len(in))
	out := make([]Ingredient, 0, len(in))
	for _, ing := range in {
		key := ing.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ing)
	}
	return out
}
