package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PromptLimits bounds how much place context and history a compiled prompt
// carries, keeping token cost predictable.
type PromptLimits struct {
	PlanContext      int
	RecommendContext int
	PlanHistory      int
	RecommendHistory int
}

// DefaultPromptLimits mirrors the documented caps: 15/10 context entries and
// 5/3 history turns for plan/recommendation prompts.
func DefaultPromptLimits() PromptLimits {
	return PromptLimits{PlanContext: 15, RecommendContext: 10, PlanHistory: 5, RecommendHistory: 3}
}

// Compiler renders deterministic prompts for the oracle.
type Compiler struct {
	limits PromptLimits
}

// NewCompiler builds a compiler; zero limits fall back to the defaults.
func NewCompiler(limits PromptLimits) *Compiler {
	def := DefaultPromptLimits()
	if limits.PlanContext <= 0 {
		limits.PlanContext = def.PlanContext
	}
	if limits.RecommendContext <= 0 {
		limits.RecommendContext = def.RecommendContext
	}
	if limits.PlanHistory <= 0 {
		limits.PlanHistory = def.PlanHistory
	}
	if limits.RecommendHistory <= 0 {
		limits.RecommendHistory = def.RecommendHistory
	}
	return &Compiler{limits: limits}
}

// Compile renders one instruction block from the intent, the verbatim user
// message, a bounded slice of recent history and a bounded slice of place
// context. The embedded schema description is the same definition the oracle
// adapter validates against.
func (c *Compiler) Compile(intent Intent, message string, history []Turn, places []PlaceContext) string {
	contextCap := c.limits.RecommendContext
	historyCap := c.limits.RecommendHistory
	schema := recommendationSchemaDescription
	task := "Recommend places matching the request."
	if intent == IntentPlan {
		contextCap = c.limits.PlanContext
		historyCap = c.limits.PlanHistory
		schema = planSchemaDescription
		task = "Produce a multi-day travel plan covering the request."
	}

	if len(places) > contextCap {
		places = places[:contextCap]
	}
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}

	return fmt.Sprintf(`You are a knowledgeable local travel concierge. You answer using only the places listed below.

%s

AVAILABLE PLACES:
%s
RECENT CONVERSATION:
%s
USER MESSAGE: %s

Respond with JSON only, no surrounding prose, matching exactly this structure:
%s`, task, renderPlaces(places), renderHistory(history), message, schema)
}

func renderPlaces(places []PlaceContext) string {
	if len(places) == 0 {
		return "(no catalog places available; invent nothing, answer from the conversation only)\n"
	}
	var b strings.Builder
	for _, p := range places {
		enc, err := json.Marshal(p)
		if err != nil {
			continue
		}
		b.WriteString("- ")
		b.Write(enc)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderHistory(history []Turn) string {
	if len(history) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, t := range history {
		b.WriteString(string(t.Sender))
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
