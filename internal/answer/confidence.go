package answer

import (
	"strings"

	"github.com/akif987/papersearch/pkg/models"
)

var notFoundPhrases = []string{
	"not present",
	"not found",
	"not mentioned",
	"does not contain",
	"no information",
	"cannot find",
	"not explicitly",
	"not stated",
}

var uncertainPhrases = []string{
	"may",
	"might",
	"possibly",
	"it seems",
	"appears to",
	"unclear",
	"not certain",
}

// assessConfidence grades an answer by its own phrasing. The generation
// prompt instructs the model to say so when the context lacks the answer,
// which is what the not-found phrases detect.
func assessConfidence(answerText string) models.Confidence {
	lower := strings.ToLower(answerText)

	for _, phrase := range notFoundPhrases {
		if strings.Contains(lower, phrase) {
			return models.ConfidenceNotFound
		}
	}
	for _, phrase := range uncertainPhrases {
		if strings.Contains(lower, phrase) {
			return models.ConfidenceMedium
		}
	}
	return models.ConfidenceHigh
}
