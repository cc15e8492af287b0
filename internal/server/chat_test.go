package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wayfarer/internal/chat"
)

type fakeChatService struct {
	lastReq  chat.Request
	env      chat.Envelope
	err      error
	sessions []chat.SessionSummary
	session  *chat.Session
	deleted  bool
}

func (f *fakeChatService) ProcessChat(ctx context.Context, req chat.Request) (chat.Envelope, error) {
	f.lastReq = req
	return f.env, f.err
}

func (f *fakeChatService) ListSessions(ctx context.Context, userID string, limit int) ([]chat.SessionSummary, error) {
	return f.sessions, f.err
}

func (f *fakeChatService) GetSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	return f.session, f.err
}

func (f *fakeChatService) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	return f.deleted, f.err
}

func TestChatEndpointReturnsEnvelope(t *testing.T) {
	e := echo.New()
	svc := &fakeChatService{env: chat.Envelope{
		Intent:         chat.IntentRecommendation,
		SessionID:      "s1",
		Recommendation: chat.FallbackRecommendation(),
	}}
	handler := &ChatHandler{Orch: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"best coffee","session_id":"s1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "u1")

	if err := handler.chat(ctx); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastReq.UserID != "u1" || svc.lastReq.Message != "best coffee" || svc.lastReq.SessionID != "s1" {
		t.Fatalf("request not forwarded: %+v", svc.lastReq)
	}
	var env chat.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.SessionID != "s1" || env.Recommendation == nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestChatEndpointAnonymous(t *testing.T) {
	e := echo.New()
	svc := &fakeChatService{env: chat.Envelope{Intent: chat.IntentRecommendation, Recommendation: chat.FallbackRecommendation()}}
	handler := &ChatHandler{Orch: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"best coffee"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := handler.chat(ctx); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if svc.lastReq.UserID != "" {
		t.Fatalf("anonymous request carried a user id: %q", svc.lastReq.UserID)
	}
}

func TestChatEndpointPropagatesErrorKinds(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name string
		err  error
	}{
		{"validation", chat.ErrValidation},
		{"external service", chat.ErrExternalService},
	}
	for _, tc := range cases {
		svc := &fakeChatService{err: tc.err}
		handler := &ChatHandler{Orch: svc}
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)

		err := handler.chat(ctx)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: error kind lost: %v", tc.name, err)
		}
	}
}

func TestSessionsEndpoints(t *testing.T) {
	e := echo.New()
	now := time.Now()
	svc := &fakeChatService{
		sessions: []chat.SessionSummary{{SessionID: "s1", LastActivity: now}},
		session:  &chat.Session{UserID: "u1", SessionID: "s1"},
		deleted:  true,
	}
	handler := &ChatHandler{Orch: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/chat/sessions?limit=5", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "u1")
	if err := handler.listSessions(ctx); err != nil {
		t.Fatalf("listSessions: %v", err)
	}
	var items []chat.SessionSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].SessionID != "s1" {
		t.Fatalf("unexpected listing: %+v", items)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chat/sessions/s1", nil)
	rec = httptest.NewRecorder()
	ctx = e.NewContext(req, rec)
	ctx.Set("user_id", "u1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("s1")
	if err := handler.getSession(ctx); err != nil {
		t.Fatalf("getSession: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/chat/sessions/s1", nil)
	rec = httptest.NewRecorder()
	ctx = e.NewContext(req, rec)
	ctx.Set("user_id", "u1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("s1")
	if err := handler.deleteSession(ctx); err != nil {
		t.Fatalf("deleteSession: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
}

func TestGetSessionMissingIs404(t *testing.T) {
	e := echo.New()
	handler := &ChatHandler{Orch: &fakeChatService{}}

	req := httptest.NewRequest(http.MethodGet, "/api/chat/sessions/absent", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "u1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("absent")

	err := handler.getSession(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %#v", err)
	}
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()
	secret := []byte("test-secret")
	next := func(c echo.Context) error {
		uid, _ := c.Get("user_id").(string)
		return c.String(http.StatusOK, uid)
	}

	// No token: anonymous passthrough.
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	rec := httptest.NewRecorder()
	if err := withOptionalAuth(next, secret)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("anonymous request rejected: %v", err)
	}
	if rec.Body.String() != "" {
		t.Fatalf("anonymous request got user id %q", rec.Body.String())
	}

	// Valid token: user id extracted.
	tok, err := SignJWT("u1", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	if err := withOptionalAuth(next, secret)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if rec.Body.String() != "u1" {
		t.Fatalf("expected user id u1, got %q", rec.Body.String())
	}

	// Garbage token: rejected, not downgraded.
	req = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	err = withOptionalAuth(next, secret)(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %#v", err)
	}
}
