package chat

import (
	"fmt"
	"strings"
	"testing"
)

func manyPlaces(n int) []PlaceContext {
	out := make([]PlaceContext, n)
	for i := range out {
		out[i] = PlaceContext{Key: fmt.Sprintf("place-%02d", i), Name: fmt.Sprintf("Place %02d", i)}
	}
	return out
}

func manyTurns(n int) []Turn {
	out := make([]Turn, n)
	for i := range out {
		out[i] = Turn{Sender: SenderUser, Text: fmt.Sprintf("turn-%02d", i)}
	}
	return out
}

func TestCompileBoundsPlaceContext(t *testing.T) {
	c := NewCompiler(PromptLimits{})

	plan := c.Compile(IntentPlan, "plan something", nil, manyPlaces(30))
	if !strings.Contains(plan, "place-14") || strings.Contains(plan, "place-15") {
		t.Fatalf("plan prompt should carry exactly 15 places")
	}

	rec := c.Compile(IntentRecommendation, "something", nil, manyPlaces(30))
	if !strings.Contains(rec, "place-09") || strings.Contains(rec, "place-10") {
		t.Fatalf("recommendation prompt should carry exactly 10 places")
	}
}

func TestCompileBoundsHistoryToMostRecent(t *testing.T) {
	c := NewCompiler(PromptLimits{})

	plan := c.Compile(IntentPlan, "plan something", manyTurns(10), nil)
	if strings.Contains(plan, "turn-04") || !strings.Contains(plan, "turn-05") || !strings.Contains(plan, "turn-09") {
		t.Fatalf("plan prompt should carry the last 5 turns")
	}

	rec := c.Compile(IntentRecommendation, "something", manyTurns(10), nil)
	if strings.Contains(rec, "turn-06") || !strings.Contains(rec, "turn-07") {
		t.Fatalf("recommendation prompt should carry the last 3 turns")
	}
}

func TestCompileEmbedsMessageAndSchema(t *testing.T) {
	c := NewCompiler(PromptLimits{})
	msg := "plan a weekend, s'il vous plaît — with \"quotes\""

	plan := c.Compile(IntentPlan, msg, nil, nil)
	if !strings.Contains(plan, msg) {
		t.Fatalf("user message must appear verbatim")
	}
	if !strings.Contains(plan, `"travelPlan"`) || !strings.Contains(plan, `"totalDays"`) {
		t.Fatalf("plan prompt missing schema description")
	}
	if !strings.Contains(plan, "JSON only") {
		t.Fatalf("plan prompt missing JSON-only instruction")
	}

	rec := c.Compile(IntentRecommendation, "coffee?", nil, nil)
	if !strings.Contains(rec, `"recommendations"`) || strings.Contains(rec, `"travelPlan"`) {
		t.Fatalf("recommendation prompt carries the wrong schema")
	}
}

func TestCompileDeterministic(t *testing.T) {
	c := NewCompiler(PromptLimits{})
	places := manyPlaces(3)
	history := manyTurns(2)
	a := c.Compile(IntentPlan, "plan", history, places)
	b := c.Compile(IntentPlan, "plan", history, places)
	if a != b {
		t.Fatalf("prompt compilation must be deterministic")
	}
}
