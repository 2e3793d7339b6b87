package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/api/respond"
	"github.com/foodiary/foodiary-chat/internal/history"
	"github.com/foodiary/foodiary-chat/internal/model"
)

// RecordsHandler serves durable conversation-history pages.
type RecordsHandler struct {
	history *history.Manager
	log     zerolog.Logger
}

func NewRecordsHandler(h *history.Manager, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{history: h, log: log}
}

type recordsResponse struct {
	UserID  string                     `json:"user_id"`
	Records []model.ConversationRecord `json:"records"`
	Count   int                        `json:"count"`
}

// ListRecords handles GET /api/users/{userId}/records.
// Optional query params: timestamp (exclusive upper bound, unix seconds as a
// float) and limit. Records come back newest first.
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var before *float64
	if raw := r.URL.Query().Get("timestamp"); raw != "" {
		ts, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respond.WriteBadRequest(w, "timestamp must be a unix timestamp")
			return
		}
		before = &ts
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.history.History(r.Context(), userID, before, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to fetch conversation records")
		respond.WriteInternalError(w, "Failed to fetch conversation records")
		return
	}
	if records == nil {
		records = []model.ConversationRecord{}
	}

	respond.WriteJSON(w, http.StatusOK, recordsResponse{
		UserID:  userID,
		Records: records,
		Count:   len(records),
	})
}
