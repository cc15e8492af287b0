package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/wayfarer/internal/telemetry"
)

// Generator is the boundary to the external generative model. Implementations
// live in internal/llm; model selection, auth and transport are their concern.
type Generator interface {
	Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error)
}

// Oracle converts the model's untrusted free-form reply into a structurally
// valid domain payload. Transport failures propagate as ErrExternalService;
// shape failures degrade to the static fallback and never reach the caller.
type Oracle struct {
	gen     Generator
	model   string
	timeout time.Duration
	logger  *log.Logger
	metrics *telemetry.Metrics
}

// NewOracle builds the adapter around a generator. A zero timeout disables
// the per-call deadline.
func NewOracle(gen Generator, model string, timeout time.Duration, logger *log.Logger, metrics *telemetry.Metrics) *Oracle {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORACLE] ", log.LstdFlags)
	}
	return &Oracle{gen: gen, model: model, timeout: timeout, logger: logger, metrics: metrics}
}

// Invoke calls the model with the compiled prompt and returns a payload for
// the requested intent. The returned Result always carries exactly one
// non-nil payload when err is nil.
func (o *Oracle) Invoke(ctx context.Context, prompt string, intent Intent) (Result, error) {
	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := o.gen.Generate(callCtx, prompt, o.model, map[string]interface{}{
		"temperature": 0.4,
	})
	o.metrics.OracleLatency(time.Since(started))
	if err != nil {
		// A timeout or network error is a collaborator outage, not a bad
		// shape; inventing a canned answer here would be misleading.
		o.metrics.OracleFailure()
		return Result{}, fmt.Errorf("%w: generate: %v", ErrExternalService, err)
	}

	span, err := extractJSON(raw)
	if err != nil {
		o.logger.Printf("no JSON in model reply (%d bytes), using fallback: %v", len(raw), err)
		o.metrics.OracleFallback("no_json")
		return o.fallback(intent), nil
	}

	switch intent {
	case IntentPlan:
		plan, err := ParsePlan([]byte(span))
		if err != nil {
			o.logger.Printf("plan reply failed validation, using fallback: %v", err)
			o.metrics.OracleFallback("invalid_plan")
			return o.fallback(intent), nil
		}
		return Result{Plan: plan}, nil
	default:
		rec, err := ParseRecommendation([]byte(span))
		if err != nil {
			o.logger.Printf("recommendation reply failed validation, using fallback: %v", err)
			o.metrics.OracleFallback("invalid_recommendation")
			return o.fallback(intent), nil
		}
		return Result{Recommendation: rec}, nil
	}
}

func (o *Oracle) fallback(intent Intent) Result {
	if intent == IntentPlan {
		return Result{Plan: FallbackPlan()}
	}
	return Result{Recommendation: FallbackRecommendation()}
}
