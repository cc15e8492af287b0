package chat

import "testing"

func TestClassifyPlanKeywords(t *testing.T) {
	c := NewClassifier(nil)
	planMessages := []string{
		"plan a weekend in the city",
		"I need an ITINERARY for Rome",
		"what to do tomorrow evening?",
		"show me a 3 day route",
		"any activities near the harbor",
	}
	for _, m := range planMessages {
		if got := c.Classify(m); got != IntentPlan {
			t.Fatalf("Classify(%q) = %s, want plan", m, got)
		}
	}
}

func TestClassifyDefaultsToRecommendation(t *testing.T) {
	c := NewClassifier(nil)
	recMessages := []string{
		"best sushi nearby",
		"somewhere quiet for coffee",
		"is the cathedral worth it?",
	}
	for _, m := range recMessages {
		if got := c.Classify(m); got != IntentRecommendation {
			t.Fatalf("Classify(%q) = %s, want recommendation", m, got)
		}
	}
}

func TestClassifyCustomKeywords(t *testing.T) {
	c := NewClassifier([]string{"voyage"})
	if got := c.Classify("plan my weekend"); got != IntentRecommendation {
		t.Fatalf("custom vocabulary should replace defaults, got %s", got)
	}
	if got := c.Classify("a grand VOYAGE"); got != IntentPlan {
		t.Fatalf("custom keyword not matched, got %s", got)
	}
}
