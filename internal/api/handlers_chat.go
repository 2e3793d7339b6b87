package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/api/respond"
	"github.com/foodiary/foodiary-chat/internal/telemetry"
)

// ChatService is what the chat endpoint needs from the orchestration layer.
// *bot.Bot satisfies it.
type ChatService interface {
	Ask(ctx context.Context, userID, query, language string) (string, error)
	Archive(ctx context.Context, userID, query, answer string) error
}

// ChatHandler serves the conversational endpoint.
type ChatHandler struct {
	bot     ChatService
	metrics *telemetry.Publisher
	log     zerolog.Logger
}

func NewChatHandler(b ChatService, metrics *telemetry.Publisher, log zerolog.Logger) *ChatHandler {
	if metrics == nil {
		metrics = telemetry.NewDisabled()
	}
	return &ChatHandler{bot: b, metrics: metrics, log: log}
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	QueryText string `json:"query_text"`
	Language  string `json:"language,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat handles POST /api/chat. The exchange is archived after the answer is
// produced; an archive failure is logged but never turns a good answer into
// an error response.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON in request body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.QueryText = strings.TrimSpace(req.QueryText)
	if req.UserID == "" || req.QueryText == "" {
		respond.WriteBadRequest(w, "user_id and query_text are required")
		return
	}

	start := time.Now()
	answer, err := h.bot.Ask(r.Context(), req.UserID, req.QueryText, req.Language)
	h.metrics.RecordLatency("chat_with_bot", time.Since(start))
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("chat query failed")
		respond.WriteInternalError(w, "Failed to answer the question")
		return
	}

	if err := h.bot.Archive(r.Context(), req.UserID, req.QueryText, answer); err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to archive exchange")
	}

	respond.WriteJSON(w, http.StatusOK, chatResponse{Response: answer})
}
