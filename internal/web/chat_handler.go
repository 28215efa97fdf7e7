package web

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/isa-group/harvey-agent-core/internal/agentcore"
	"github.com/isa-group/harvey-agent-core/internal/config"
	"github.com/isa-group/harvey-agent-core/internal/llm"
	"github.com/isa-group/harvey-agent-core/internal/pricing"
	"github.com/isa-group/harvey-agent-core/internal/session"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// maxChatRequestBody bounds the decoded JSON body for POST /chat.
const maxChatRequestBody = 1 << 20 // 1MiB

// pricingResolver is the subset of *cache.Cache that ChatHandler needs;
// narrowed to an interface so tests can stub it without standing up a real
// extractor pipeline.
type pricingResolver interface {
	Resolve(ctx context.Context, canonicalURL string) (string, error)
}

// ChatHandler serves POST /chat: launches one C7 agent turn synchronously
// and returns {answer, plan?, result?} on completion (spec.md §4.8).
type ChatHandler struct {
	provider llm.LLMProvider
	registry *tool.Registry
	cache    pricingResolver
	sessions *session.Store
	settings config.Settings
}

// NewChatHandler wires a ChatHandler from its collaborators.
func NewChatHandler(provider llm.LLMProvider, registry *tool.Registry, cache pricingResolver, sessions *session.Store, settings config.Settings) *ChatHandler {
	return &ChatHandler{provider: provider, registry: registry, cache: cache, sessions: sessions, settings: settings}
}

// ServeHTTP handles POST /chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			writeError(w, http.StatusBadRequest, "empty request body")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}
	if err := req.validateExclusion(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	for _, raw := range req.urls() {
		canonical, err := pricing.Canonicalize(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pricing_url: "+err.Error())
			return
		}
		h.registerURLItem(sessionID, canonical)
	}
	for _, yaml := range req.yamls() {
		h.registerYAMLItem(sessionID, yaml)
	}

	turnCtx := h.sessions.BeginTurn(r.Context(), sessionID)
	defer h.sessions.EndTurn(sessionID)

	timeout := h.settings.AgentStepTimeout
	if timeout <= 0 {
		timeout = agentcore.DefaultStepTimeout
	}
	turnCtx, cancel := context.WithTimeout(turnCtx, timeout*time.Duration(h.effectiveBudget()))
	defer cancel()

	history, summary := h.sessions.GetSessionContext(sessionID)

	state := agentcore.NewAgentState(req.Question, h.registry, h.settings.AgentStepBudget)
	state.ConversationHistory = session.ToProblemPrefix(history, 0, summary)
	state.PricingContext = h.sessions.ListItems(sessionID)

	flow := agentcore.BuildAgentFlow(h.provider, h.registry, 0)
	flow.Run(turnCtx, state)

	if state.Status == agentcore.StatusFailed || state.Status == agentcore.StatusCancelled {
		log.Printf("[Chat] session %s turn ended in status %s", sessionID, state.Status)
		writeError(w, http.StatusInternalServerError, "agent turn failed")
		return
	}

	resp := chatResponse{Answer: state.Solution}
	resp.Plan, resp.Result = extractPlanAndResult(state)

	h.sessions.AppendTurn(sessionID, session.Turn{UserMsg: req.Question, Assistant: state.Solution})

	w.Header().Set("Set-Cookie", "session_id="+sessionID+"; Path=/; HttpOnly; SameSite=Lax")
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) effectiveBudget() int {
	budget := h.settings.AgentStepBudget
	if budget <= 0 {
		budget = agentcore.DefaultStepBudget
	}
	return budget
}

// registerURLItem adds a url-kind item to the session's working set and
// kicks off its C4 transformation in the background; BeginTurn/EndTurn
// bound the agent turn itself, not this detached resolve.
func (h *ChatHandler) registerURLItem(sessionID, canonicalURL string) {
	item := &pricing.Item{
		ID:        canonicalURL,
		Kind:      pricing.KindURL,
		Origin:    pricing.OriginUser,
		Value:     canonicalURL,
		Transform: pricing.TransformPending,
		CreatedAt: time.Now(),
	}
	h.sessions.PutItem(sessionID, item)

	go func() {
		ctx, cancel := context.WithTimeout(session.ContextWithID(context.Background(), sessionID), 5*time.Minute)
		defer cancel()
		if _, err := h.cache.Resolve(ctx, canonicalURL); err != nil {
			item.Transform = pricing.TransformFailed
			item.TransformErr = err.Error()
			h.sessions.PutItem(sessionID, item)
			return
		}
		item.Transform = pricing.TransformDone
		item.ArtifactRef = canonicalURL
		h.sessions.PutItem(sessionID, item)
	}()
}

func (h *ChatHandler) registerYAMLItem(sessionID, yamlText string) {
	id := uuid.New().String()
	item := &pricing.Item{
		ID:          id,
		Kind:        pricing.KindYAML,
		Origin:      pricing.OriginUser,
		Value:       yamlText,
		Transform:   pricing.TransformDone,
		ArtifactRef: id,
		Uploaded:    true,
		CreatedAt:   time.Now(),
	}
	h.sessions.PutItem(sessionID, item)
}

// solverToolNames are the tools whose output carries a grounded filter and
// structured result the chat response surfaces as plan/result.
var solverToolNames = map[string]bool{
	"subscriptions": true,
	"optimal":       true,
	"filter":        true,
}

// solverEnvelope is the JSON shape runSolverJob's callers wrap their output
// in (see internal/tool/builtin/solver_job.go).
type solverEnvelope struct {
	Result json.RawMessage `json:"result"`
	Plan   json.RawMessage `json:"grounded_filter,omitempty"`
}

// extractPlanAndResult scans the transcript for the last successful
// solver-tool step and splits its envelope into the chat response's plan
// and result fields (spec.md worked example: "plan metadata contains the
// grounded filter"). Returns zero values if no solver tool ran.
func extractPlanAndResult(state *agentcore.AgentState) (plan, result json.RawMessage) {
	for i := len(state.StepHistory) - 1; i >= 0; i-- {
		step := state.StepHistory[i]
		if step.Type != "tool" || step.IsError || !solverToolNames[step.ToolName] {
			continue
		}
		var env solverEnvelope
		if err := json.Unmarshal([]byte(step.Observation), &env); err != nil {
			// Not an envelope (e.g. validate's plain output); surface it raw.
			return nil, json.RawMessage(step.Observation)
		}
		return env.Plan, env.Result
	}
	return nil, nil
}
