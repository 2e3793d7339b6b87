package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodiary/foodiary-chat/internal/history"
	"github.com/foodiary/foodiary-chat/internal/model"
)

type stubChat struct {
	answer     string
	askErr     error
	archiveErr error

	archived [][3]string
}

func (s *stubChat) Ask(_ context.Context, userID, query, language string) (string, error) {
	if s.askErr != nil {
		return "", s.askErr
	}
	return s.answer, nil
}

func (s *stubChat) Archive(_ context.Context, userID, query, answer string) error {
	s.archived = append(s.archived, [3]string{userID, query, answer})
	return s.archiveErr
}

type stubFastTier struct{}

func (stubFastTier) Push(context.Context, string, model.ConversationRecord) error { return nil }
func (stubFastTier) LoadBatch(context.Context, string, []model.ConversationRecord) (bool, error) {
	return false, nil
}
func (stubFastTier) Recent(context.Context, string, int) ([]model.ConversationRecord, error) {
	return nil, nil
}
func (stubFastTier) Delete(context.Context, string) error { return nil }

type stubIndex struct{}

func (stubIndex) Touch(context.Context, string, float64) error   { return nil }
func (stubIndex) Remove(context.Context, string) error           { return nil }
func (stubIndex) Oldest(context.Context, int64) ([]string, error) { return nil, nil }
func (stubIndex) Count(context.Context) (int64, error)           { return 0, nil }

type stubDurable struct {
	recs []model.ConversationRecord
	err  error
}

func (s *stubDurable) Append(context.Context, model.ConversationRecord) error { return nil }
func (s *stubDurable) Query(_ context.Context, userID string, before *float64, limit int) ([]model.ConversationRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.ConversationRecord, 0, limit)
	for _, rec := range s.recs {
		if rec.UserID != userID {
			continue
		}
		if before != nil && rec.Timestamp >= *before {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newRecordsRouter(durable *stubDurable) http.Handler {
	mgr := history.NewManager(stubFastTier{}, stubIndex{}, durable, history.ManagerConfig{}, zerolog.Nop())
	return NewRouter(&stubChat{answer: "ok"}, mgr, nil, nil, zerolog.Nop())
}

func TestChatEndpoint(t *testing.T) {
	chat := &stubChat{answer: "Eat more vegetables."}
	h := NewChatHandler(chat, nil, zerolog.Nop())

	body := `{"user_id":"u1","query_text":"what should I eat?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Eat more vegetables.", resp.Response)

	require.Len(t, chat.archived, 1)
	assert.Equal(t, [3]string{"u1", "what should I eat?", "Eat more vegetables."}, chat.archived[0])
}

func TestChatEndpointRejectsBadInput(t *testing.T) {
	h := NewChatHandler(&stubChat{}, nil, zerolog.Nop())

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"user_id":`},
		{"missing user", `{"query_text":"hi"}`},
		{"missing query", `{"user_id":"u1"}`},
		{"blank query", `{"user_id":"u1","query_text":"  "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Chat(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestChatEndpointAskFailure(t *testing.T) {
	h := NewChatHandler(&stubChat{askErr: errors.New("model down")}, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"user_id":"u1","query_text":"hi"}`))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestChatEndpointArchiveFailureStillAnswers(t *testing.T) {
	chat := &stubChat{answer: "fine", archiveErr: errors.New("redis down")}
	h := NewChatHandler(chat, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"user_id":"u1","query_text":"hi"}`))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "fine", resp.Response)
}

func TestRecordsEndpoint(t *testing.T) {
	durable := &stubDurable{recs: []model.ConversationRecord{
		{UserID: "u1", Timestamp: 300, Turns: []model.Message{{Role: model.RoleUser, Text: "q3"}, {Role: model.RoleBot, Text: "a3"}}},
		{UserID: "u1", Timestamp: 200, Turns: []model.Message{{Role: model.RoleUser, Text: "q2"}, {Role: model.RoleBot, Text: "a2"}}},
		{UserID: "u1", Timestamp: 100, Turns: []model.Message{{Role: model.RoleUser, Text: "q1"}, {Role: model.RoleBot, Text: "a1"}}},
	}}
	router := newRecordsRouter(durable)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/records?timestamp=300&limit=2", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp recordsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, float64(200), resp.Records[0].Timestamp)
	assert.Equal(t, float64(100), resp.Records[1].Timestamp)
}

func TestRecordsEndpointUnknownUser(t *testing.T) {
	router := newRecordsRouter(&stubDurable{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/nobody/records", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp recordsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Records)
}

func TestRecordsEndpointBadParams(t *testing.T) {
	router := newRecordsRouter(&stubDurable{})

	for _, path := range []string{
		"/api/users/u1/records?timestamp=not-a-number",
		"/api/users/u1/records?limit=-1",
		"/api/users/u1/records?limit=abc",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestRecordsEndpointStoreFailure(t *testing.T) {
	router := newRecordsRouter(&stubDurable{err: errors.New("mongo down")})

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/records", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
