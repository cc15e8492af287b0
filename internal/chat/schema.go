package chat

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// This file is the single source of truth for the oracle's reply contract.
// The prompt compiler embeds the schema descriptions below and the oracle
// adapter validates replies against the same shapes; keeping both here
// avoids the two drifting apart.

// Coordinates is a geographic point attached to a place.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceContext is a read-only projection of a catalog place exposed to the
// model and echoed back inside plan/recommendation payloads.
type PlaceContext struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Type        string       `json:"type,omitempty"`
	Description string       `json:"description,omitempty"`
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Activity is one timed entry of a plan day.
type Activity struct {
	Time     string       `json:"time"` // HH:MM, 24h
	Category string       `json:"category"`
	Place    PlaceContext `json:"place"`
}

// PlanDay is one day of a travel plan. Days are numbered 1..totalDays.
type PlanDay struct {
	Day        int        `json:"day"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// TravelPlan is the structured multi-day itinerary.
type TravelPlan struct {
	TotalDays int       `json:"totalDays"`
	Days      []PlanDay `json:"days"`
}

// PlanResponse is the oracle payload for "plan" requests.
type PlanResponse struct {
	Message    string     `json:"message"`
	TravelPlan TravelPlan `json:"travelPlan"`
}

// RecommendationItem wraps a single recommended place.
type RecommendationItem struct {
	Place PlaceContext `json:"place"`
}

// RecommendationResponse is the oracle payload for "recommendation" requests.
type RecommendationResponse struct {
	Message         string               `json:"message"`
	Recommendations []RecommendationItem `json:"recommendations"`
}

// Result carries exactly one of the two oracle payloads.
type Result struct {
	Plan           *PlanResponse           `json:"plan,omitempty"`
	Recommendation *RecommendationResponse `json:"recommendation,omitempty"`
}

// Envelope is the value returned to the caller: the oracle payload plus the
// session identifier when the request ran on behalf of a known user.
type Envelope struct {
	Intent         Intent                  `json:"intent"`
	SessionID      string                  `json:"session_id,omitempty"`
	Plan           *PlanResponse           `json:"plan,omitempty"`
	Recommendation *RecommendationResponse `json:"recommendation,omitempty"`
}

// Schema descriptions embedded verbatim in compiled prompts. Field names must
// stay aligned with the JSON tags above and the validators below.
const planSchemaDescription = `{
  "message": "short human-readable summary of the plan",
  "travelPlan": {
    "totalDays": <number of days>,
    "days": [
      {
        "day": <1-based day number>,
        "title": "theme of the day",
        "activities": [
          {
            "time": "HH:MM",
            "category": "category of the activity",
            "place": {"key": "...", "name": "...", "type": "...", "description": "...", "address": "...", "coordinates": {"lat": 0, "lng": 0}}
          }
        ]
      }
    ]
  }
}`

const recommendationSchemaDescription = `{
  "message": "short human-readable introduction",
  "recommendations": [
    {"place": {"key": "...", "name": "...", "type": "...", "description": "...", "address": "...", "coordinates": {"lat": 0, "lng": 0}}}
  ]
}`

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParsePlan decodes and minimally validates a plan payload. A reply passes
// when it carries a non-empty message and at least one day; counts and day
// numbers are normalized afterwards so the totalDays/day invariants hold for
// everything this package hands out.
func ParsePlan(raw []byte) (*PlanResponse, error) {
	var p PlanResponse
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if p.Message == "" {
		return nil, fmt.Errorf("plan payload missing message")
	}
	if len(p.TravelPlan.Days) == 0 {
		return nil, fmt.Errorf("plan payload missing travelPlan.days")
	}
	p.normalize()
	return &p, nil
}

func (p *PlanResponse) normalize() {
	p.TravelPlan.TotalDays = len(p.TravelPlan.Days)
	for i := range p.TravelPlan.Days {
		p.TravelPlan.Days[i].Day = i + 1
		for j := range p.TravelPlan.Days[i].Activities {
			a := &p.TravelPlan.Days[i].Activities[j]
			if !timePattern.MatchString(a.Time) {
				a.Time = "09:00"
			}
		}
	}
}

// ParseRecommendation decodes and minimally validates a recommendation
// payload: only a non-empty message is required.
func ParseRecommendation(raw []byte) (*RecommendationResponse, error) {
	var r RecommendationResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode recommendation: %w", err)
	}
	if r.Message == "" {
		return nil, fmt.Errorf("recommendation payload missing message")
	}
	return &r, nil
}

// defaultPlace backs the static fallback payloads.
func defaultPlace() PlaceContext {
	return PlaceContext{
		Key:         "old-town-square",
		Name:        "Old Town Square",
		Type:        "landmark",
		Description: "The historic heart of the city, a safe starting point for any visit.",
		Address:     "City Center",
		Coordinates: &Coordinates{Lat: 0, Lng: 0},
	}
}

// FallbackPlan is the always-valid plan substituted when the oracle's reply
// cannot be trusted structurally.
func FallbackPlan() *PlanResponse {
	return &PlanResponse{
		Message: "Here is a simple one-day outline to get you started. Ask again for a more detailed itinerary.",
		TravelPlan: TravelPlan{
			TotalDays: 1,
			Days: []PlanDay{{
				Day:   1,
				Title: "Getting to know the city",
				Activities: []Activity{{
					Time:     "10:00",
					Category: "sightseeing",
					Place:    defaultPlace(),
				}},
			}},
		},
	}
}

// FallbackRecommendation is the always-valid recommendation substituted when
// the oracle's reply cannot be trusted structurally.
func FallbackRecommendation() *RecommendationResponse {
	return &RecommendationResponse{
		Message:         "Here is a spot most visitors enjoy. Ask again for something more specific.",
		Recommendations: []RecommendationItem{{Place: defaultPlace()}},
	}
}
