package classify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// noContextPlaceholder stands in for retrieved context when the knowledge
// base returned nothing, so the model is told explicitly rather than given
// an empty block.
const noContextPlaceholder = "No specific monograph information was found."

const promptTemplate = `You are a strict regulatory analyst. Your task is to classify a single medicinal ingredient based ONLY on the provided monograph context.

Ingredient Name: %q

Provided Monograph Context:
---
%s
---

Task:
1. First, critically evaluate if the provided context is ACTUALLY about the ingredient in question.
2. If the context is irrelevant, state that clearly in your reasoning.
3. Provide a classification (Class 1, 2, or 3) and a confidence score (0.0-1.0).
   - Class 1: Context fully supports the ingredient.
   - Class 2: Context provides some support, but is not definitive.
   - Class 3: Context is irrelevant, does not support the ingredient, or is insufficient.

Respond ONLY with a single, valid JSON object with the fields "class", "classification_text", "reasoning" and "confidence".
Example for irrelevant context:
{"class": 3, "classification_text": "Class 3", "reasoning": "The provided context is for 'L-Carnitine', not 'Acerola'. Therefore, no valid classification can be made.", "confidence": 1.0}`

// BuildPrompt assembles the classification prompt for an ingredient name
// and its retrieved monograph passages.
func BuildPrompt(name string, passages []string) string {
	context := noContextPlaceholder
	if len(passages) > 0 {
		context = strings.Join(passages, "\n")
	}
	return fmt.Sprintf(promptTemplate, name, context)
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseVerdict extracts a Result from a model response, accepting either a
// bare JSON object or one embedded inside a fenced code block.
func ParseVerdict(response string) (Result, error) {
	body := strings.TrimSpace(response)
	if m := fencedJSONRe.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	var r Result
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return Result{}, fmt.Errorf("model response is not a JSON verdict: %w", err)
	}
	if r.Class < 1 || r.Class > 3 {
		return Result{}, fmt.Errorf("model verdict has invalid class %d", r.Class)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return Result{}, fmt.Errorf("model verdict has invalid confidence %v", r.Confidence)
	}
	if r.ClassificationText == "" {
		r.ClassificationText = fmt.Sprintf("Class %d", r.Class)
	}
	return r, nil
}
