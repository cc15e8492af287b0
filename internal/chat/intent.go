package chat

import "strings"

// Intent is the classified request mode.
type Intent string

const (
	IntentPlan           Intent = "plan"
	IntentRecommendation Intent = "recommendation"
)

// defaultPlanKeywords is the built-in vocabulary associated with multi-day /
// itinerary requests. Deliberately coarse: both intents share the same
// downstream fallback machinery, so misclassification is cheap.
var defaultPlanKeywords = []string{
	"plan",
	"itinerary",
	"route",
	"what to do",
	"where to go",
	"day",
	"days",
	"weekend",
	"week",
	"morning",
	"afternoon",
	"evening",
	"schedule",
	"activities",
	"trip",
	"visit",
}

// Classifier decides whether an utterance asks for a multi-day plan or a
// single recommendation. Pure, no I/O.
type Classifier struct {
	keywords []string
}

// NewClassifier builds a classifier over the given vocabulary; an empty slice
// selects the built-in defaults.
func NewClassifier(keywords []string) *Classifier {
	if len(keywords) == 0 {
		keywords = defaultPlanKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Classifier{keywords: lowered}
}

// Classify returns IntentPlan when any vocabulary term occurs in the message
// (case-insensitive substring match), IntentRecommendation otherwise.
func (c *Classifier) Classify(message string) Intent {
	m := strings.ToLower(message)
	for _, k := range c.keywords {
		if strings.Contains(m, k) {
			return IntentPlan
		}
	}
	return IntentRecommendation
}
