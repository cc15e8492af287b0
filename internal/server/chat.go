package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wayfarer/internal/chat"
)

// ChatService is what the handler needs from the orchestrator.
type ChatService interface {
	ProcessChat(ctx context.Context, req chat.Request) (chat.Envelope, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]chat.SessionSummary, error)
	GetSession(ctx context.Context, userID, sessionID string) (*chat.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) (bool, error)
}

// ChatHandler exposes the conversational pipeline over HTTP.
type ChatHandler struct {
	Orch ChatService
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	g.POST("", h.chat, func(next echo.HandlerFunc) echo.HandlerFunc { return withOptionalAuth(next, secret) })
	sessions := g.Group("/sessions")
	sessions.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	sessions.GET("", h.listSessions)
	sessions.GET("/:id", h.getSession)
	sessions.DELETE("/:id", h.deleteSession)
}

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Get("user_id").(string)

	env, err := h.Orch.ProcessChat(c.Request().Context(), chat.Request{
		UserID:    userID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Context:   req.Context,
	})
	if err != nil {
		// Kind-aware status mapping happens in the HTTPErrorHandler.
		return err
	}
	return c.JSON(http.StatusOK, env)
}

func (h *ChatHandler) listSessions(c echo.Context) error {
	userID := c.Get("user_id").(string)
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	items, err := h.Orch.ListSessions(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []chat.SessionSummary{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ChatHandler) getSession(c echo.Context) error {
	userID := c.Get("user_id").(string)
	sess, err := h.Orch.GetSession(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	if sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *ChatHandler) deleteSession(c echo.Context) error {
	userID := c.Get("user_id").(string)
	ok, err := h.Orch.DeleteSession(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}
