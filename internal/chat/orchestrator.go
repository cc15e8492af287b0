package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/wayfarer/internal/catalog"
	"github.com/mohammad-safakhou/wayfarer/internal/telemetry"
)

// Request is one chat invocation. UserID empty means anonymous mode: the
// pipeline runs fully but nothing is persisted.
type Request struct {
	UserID    string
	SessionID string
	Message   string
	Context   string // optional free-text hint appended to the user message
}

// Orchestrator composes the pipeline: place context, intent, prompt, oracle,
// persistence.
type Orchestrator struct {
	catalog    catalog.Source
	classifier *Classifier
	compiler   *Compiler
	oracle     *Oracle
	store      ConversationStore
	logger     *log.Logger
	metrics    *telemetry.Metrics
}

// NewOrchestrator wires the pipeline. catalog and store may be nil; a nil
// catalog yields empty place context and a nil store forces anonymous mode.
func NewOrchestrator(cat catalog.Source, classifier *Classifier, compiler *Compiler, oracle *Oracle, store ConversationStore, logger *log.Logger, metrics *telemetry.Metrics) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Orchestrator{
		catalog:    cat,
		classifier: classifier,
		compiler:   compiler,
		oracle:     oracle,
		store:      store,
		logger:     logger,
		metrics:    metrics,
	}
}

// ProcessChat runs one request through the pipeline and returns the response
// envelope. Failure semantics: empty message -> ErrValidation before any
// model work; oracle transport failures -> ErrExternalService; everything
// else, including history writes, cannot fail the request.
func (o *Orchestrator) ProcessChat(ctx context.Context, req Request) (Envelope, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Envelope{}, fmt.Errorf("%w: message required", ErrValidation)
	}

	places := o.placeContext(ctx)

	persist := req.UserID != "" && o.store != nil
	sessionID := req.SessionID
	var history []Turn
	if persist {
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		sess, err := o.store.GetOrCreateSession(ctx, req.UserID, sessionID)
		if err != nil {
			// History is best effort; the answer must not depend on it.
			o.logger.Printf("load session %s/%s: %v", req.UserID, sessionID, err)
			persist = false
		} else {
			history = sess.Turns
		}
	}

	intent := o.classifier.Classify(message)
	o.metrics.ChatRequest(string(intent))

	prompt := message
	if req.Context != "" {
		prompt = message + "\n\nAdditional context from the caller: " + req.Context
	}
	compiled := o.compiler.Compile(intent, prompt, history, places)

	result, err := o.oracle.Invoke(ctx, compiled, intent)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{Intent: intent, Plan: result.Plan, Recommendation: result.Recommendation}
	if persist {
		env.SessionID = sessionID
		o.persistExchange(ctx, req.UserID, sessionID, message, result)
	}
	return env, nil
}

// ListSessions proxies the store for the HTTP layer.
func (o *Orchestrator) ListSessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	if o.store == nil {
		return nil, fmt.Errorf("%w: conversation store not configured", ErrStorage)
	}
	return o.store.ListSessions(ctx, userID, limit)
}

// GetSession proxies the store for the HTTP layer.
func (o *Orchestrator) GetSession(ctx context.Context, userID, sessionID string) (*Session, error) {
	if o.store == nil {
		return nil, fmt.Errorf("%w: conversation store not configured", ErrStorage)
	}
	return o.store.GetSession(ctx, userID, sessionID)
}

// DeleteSession proxies the store for the HTTP layer.
func (o *Orchestrator) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	if o.store == nil {
		return false, fmt.Errorf("%w: conversation store not configured", ErrStorage)
	}
	return o.store.DeleteSession(ctx, userID, sessionID)
}

func (o *Orchestrator) placeContext(ctx context.Context) []PlaceContext {
	if o.catalog == nil {
		return nil
	}
	raws, err := o.catalog.ListActivePlaces(ctx)
	if err != nil {
		// The pipeline still works without catalog context.
		o.logger.Printf("list places: %v", err)
		return nil
	}
	return BuildPlaceContext(raws)
}

// persistExchange appends the user and assistant turns. Failures are logged
// and counted, never surfaced: the caller already has their answer.
func (o *Orchestrator) persistExchange(ctx context.Context, userID, sessionID, message string, result Result) {
	if _, err := o.store.AppendTurn(ctx, userID, sessionID, Turn{Sender: SenderUser, Text: message}); err != nil {
		o.logger.Printf("append user turn %s/%s: %v", userID, sessionID, err)
		o.metrics.HistoryWriteFailure()
		return
	}

	text := ""
	var payload json.RawMessage
	if result.Plan != nil {
		text = result.Plan.Message
		payload, _ = json.Marshal(result.Plan)
	} else if result.Recommendation != nil {
		text = result.Recommendation.Message
		payload, _ = json.Marshal(result.Recommendation)
	}
	if _, err := o.store.AppendTurn(ctx, userID, sessionID, Turn{Sender: SenderAssistant, Text: text, Payload: payload}); err != nil {
		o.logger.Printf("append assistant turn %s/%s: %v", userID, sessionID, err)
		o.metrics.HistoryWriteFailure()
	}
}
