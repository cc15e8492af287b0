package chat

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt, model string, options map[string]interface{}) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type slowGenerator struct{}

func (g *slowGenerator) Generate(ctx context.Context, prompt, model string, options map[string]interface{}) (string, error) {
	select {
	case <-time.After(5 * time.Second):
		return `{"message":"too late"}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestOracleReturnsValidRecommendationVerbatim(t *testing.T) {
	gen := &stubGenerator{reply: `{"message":"try the old town","recommendations":[{"place":{"key":"old-town","name":"Old Town"}}]}`}
	o := NewOracle(gen, "m", 0, nil, nil)
	res, err := o.Invoke(context.Background(), "p", IntentRecommendation)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Recommendation == nil || res.Plan != nil {
		t.Fatalf("expected recommendation payload, got %+v", res)
	}
	if res.Recommendation.Message != "try the old town" {
		t.Fatalf("payload altered: %+v", res.Recommendation)
	}
	if len(res.Recommendation.Recommendations) != 1 || res.Recommendation.Recommendations[0].Place.Key != "old-town" {
		t.Fatalf("recommendations altered: %+v", res.Recommendation.Recommendations)
	}
}

func TestOracleExtractsJSONFromProse(t *testing.T) {
	gen := &stubGenerator{reply: `Sure! {"message":"ok"}`}
	o := NewOracle(gen, "m", 0, nil, nil)
	res, err := o.Invoke(context.Background(), "p", IntentRecommendation)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Recommendation == nil || res.Recommendation.Message != "ok" {
		t.Fatalf("expected extracted payload, got %+v", res.Recommendation)
	}
}

func TestOracleFallsBackOnMalformedJSON(t *testing.T) {
	gen := &stubGenerator{reply: `{"message": broken`}
	o := NewOracle(gen, "m", 0, nil, nil)
	res, err := o.Invoke(context.Background(), "p", IntentPlan)
	if err != nil {
		t.Fatalf("shape failures must not error: %v", err)
	}
	if res.Plan == nil {
		t.Fatalf("expected fallback plan")
	}
	if res.Plan.Message != FallbackPlan().Message {
		t.Fatalf("expected the static fallback, got %+v", res.Plan)
	}
}

func TestOracleFallsBackOnMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		intent Intent
		reply  string
	}{
		{"plan without days", IntentPlan, `{"message":"hi","travelPlan":{"totalDays":2,"days":[]}}`},
		{"plan without message", IntentPlan, `{"travelPlan":{"days":[{"day":1}]}}`},
		{"recommendation without message", IntentRecommendation, `{"recommendations":[]}`},
	}
	for _, tc := range cases {
		o := NewOracle(&stubGenerator{reply: tc.reply}, "m", 0, nil, nil)
		res, err := o.Invoke(context.Background(), "p", tc.intent)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.intent == IntentPlan && (res.Plan == nil || res.Plan.Message != FallbackPlan().Message) {
			t.Fatalf("%s: expected fallback plan, got %+v", tc.name, res.Plan)
		}
		if tc.intent == IntentRecommendation && (res.Recommendation == nil || res.Recommendation.Message != FallbackRecommendation().Message) {
			t.Fatalf("%s: expected fallback recommendation, got %+v", tc.name, res.Recommendation)
		}
	}
}

func TestOracleTransportFailureIsNotFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	o := NewOracle(gen, "m", 0, nil, nil)
	_, err := o.Invoke(context.Background(), "p", IntentRecommendation)
	if err == nil {
		t.Fatalf("expected error for transport failure")
	}
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestOracleTimeoutIsExternalServiceError(t *testing.T) {
	o := NewOracle(&slowGenerator{}, "m", 20*time.Millisecond, nil, nil)
	start := time.Now()
	_, err := o.Invoke(context.Background(), "p", IntentPlan)
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected ErrExternalService on timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout did not abort the call promptly")
	}
}

func TestPlanInvariantHoldsForEveryPlan(t *testing.T) {
	// Model-derived plan with a wrong totalDays and sloppy numbering.
	gen := &stubGenerator{reply: `{"message":"3 days","travelPlan":{"totalDays":7,"days":[{"day":9,"title":"a"},{"day":2,"title":"b"},{"day":2,"title":"c"}]}}`}
	o := NewOracle(gen, "m", 0, nil, nil)
	res, err := o.Invoke(context.Background(), "p", IntentPlan)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	checkPlanInvariant(t, res.Plan)
	checkPlanInvariant(t, FallbackPlan())
}

func checkPlanInvariant(t *testing.T, p *PlanResponse) {
	t.Helper()
	if p.TravelPlan.TotalDays != len(p.TravelPlan.Days) {
		t.Fatalf("totalDays=%d but %d days", p.TravelPlan.TotalDays, len(p.TravelPlan.Days))
	}
	for i, d := range p.TravelPlan.Days {
		if d.Day != i+1 {
			t.Fatalf("day %d numbered %d", i+1, d.Day)
		}
	}
}
