// Package terms extracts clinical vocabulary hits from conversation text.
//
// This is a fixed-vocabulary substring scan, not NLP: the taxonomy below
// is the whole model. Scan order (category declaration order, then term
// declaration order) is a contract — downstream ranking depends on it
// being deterministic.
package terms

import (
	"strings"

	"github.com/medcodeai/speech-to-code/internal/types"
)

type vocabulary struct {
	category types.Category
	terms    []string
}

// taxonomy is the clinical vocabulary, grouped by category. Order matters;
// see the package comment.
var taxonomy = []vocabulary{
	{types.CategorySymptom, []string{
		"pain", "cough", "fever", "shortness of breath", "nausea", "vomiting",
		"stomach ache", "headache", "dizziness", "fatigue", "weakness",
		"sick", "dizzy", "ache", "hurt", "sore", "swelling", "rash",
		"diarrhea", "constipation", "bloating", "gas", "heartburn",
	}},
	{types.CategoryDisease, []string{
		"indigestion", "flu", "cold", "infection", "inflammation",
		"diabetes", "hypertension", "asthma", "arthritis", "cancer",
	}},
	{types.CategoryProcedure, []string{
		"diagnostic tests", "blood test", "urine sample", "x-ray",
		"mri", "ct scan", "ultrasound", "biopsy", "surgery", "examination",
	}},
}

// Extract returns every taxonomy term contained in text, in taxonomy
// order. Each hit carries the original text as context. Overlapping terms
// all match ("stomach ache" also hits "ache") and nothing is deduplicated
// here — repeat and cross-category hits are evidence the matcher weighs
// per term.
func Extract(text string) []types.ClinicalTerm {
	lower := strings.ToLower(text)

	var found []types.ClinicalTerm
	for _, vocab := range taxonomy {
		for _, term := range vocab.terms {
			if strings.Contains(lower, term) {
				found = append(found, types.ClinicalTerm{
					Term:     term,
					Category: vocab.category,
					Context:  text,
				})
			}
		}
	}
	return found
}
