package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmart/buildmart-server/internal/config"
	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
	"github.com/buildmart/buildmart-server/internal/logging"
	"github.com/buildmart/buildmart-server/internal/replies"
	"github.com/buildmart/buildmart-server/internal/rfq"
	"github.com/buildmart/buildmart-server/internal/session"
)

type stubAssistant struct {
	reply string
	err   error
	calls int
}

func (s *stubAssistant) Reply(_ context.Context, _ []domain.Message, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestHandler(t *testing.T, assistant *stubAssistant) http.Handler {
	t.Helper()

	bank, err := replies.NewBank(1)
	require.NoError(t, err)

	logger, err := logging.New(&logging.Config{Level: "error", Format: "json"})
	require.NoError(t, err)

	sessions := session.NewManager(bank, session.NewMemoryStore(0), assistant, nil, session.Config{}, logger.Zap())

	h := New(Config{
		Sessions:  sessions,
		Assistant: assistant,
		RFQ: rfq.NewBuilder(&config.RFQConfig{
			WhatsAppNumber: "919876543210",
			Email:          "sales@buildmart.example",
		}),
		Logger: logger,
	})
	return h.Routes(nil)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatProxySuccess(t *testing.T) {
	assistant := &stubAssistant{reply: "OPC 53 is around Rs 400 per bag."}
	router := newTestHandler(t, assistant)

	rec := doJSON(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"cement price?"}]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "OPC 53")
}

func TestChatProxyRejectsNonArrayMessages(t *testing.T) {
	assistant := &stubAssistant{reply: "never"}
	router := newTestHandler(t, assistant)

	rec := doJSON(t, router, http.MethodPost, "/chat", `{"messages":"hello"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	assert.Zero(t, assistant.calls, "validation failures must not reach the upstream model")
}

func TestChatProxyRejectsEmptyMessages(t *testing.T) {
	assistant := &stubAssistant{}
	router := newTestHandler(t, assistant)

	rec := doJSON(t, router, http.MethodPost, "/chat", `{"messages":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, assistant.calls)
}

func TestChatProxyRateLimitedUpstream(t *testing.T) {
	assistant := &stubAssistant{err: apperrors.ErrRateLimited}
	router := newTestHandler(t, assistant)

	rec := doJSON(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	// The widget contract reads error as a plain string.
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, "RATE_LIMITED", body.Code)
}

func TestChatProxyQuotaExhaustedUpstream(t *testing.T) {
	assistant := &stubAssistant{err: apperrors.ErrQuotaExhausted}
	router := newTestHandler(t, assistant)

	rec := doJSON(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "QUOTA_EXHAUSTED")
	assert.Contains(t, rec.Body.String(), "contact support")
}

func TestChatProxyUpstreamErrorIsOpaque(t *testing.T) {
	assistant := &stubAssistant{err: apperrors.UpstreamError(503, assertErr("secret upstream detail"))}
	router := newTestHandler(t, assistant)

	rec := doJSON(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret upstream detail")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestChatPreflight(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	// Open
	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", `{"mode":"scripted"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened OpenSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	require.NotEmpty(t, opened.SessionID)
	require.Len(t, opened.Messages, 1, "opening must emit the greeting")

	// Engaged opener advances to the name question.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/messages",
		`{"body":"I need TMT steel"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var turn TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, domain.SenderBot, turn.Messages[len(turn.Messages)-1].Sender)

	// The name is captured and echoed in the location question.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/messages",
		`{"body":"Rohit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Contains(t, turn.Messages[len(turn.Messages)-1].Body, "Rohit")

	// Transcript endpoint returns the same history.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+opened.SessionID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Close.
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+opened.SessionID+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Closed session is gone.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+opened.SessionID+"/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitValidation(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened OpenSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSessionIs404(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/nope/messages", `{"body":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestCategories(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CategoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Categories, 10)
}

func TestRFQLinks(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened OpenSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	for _, body := range []string{"hello", "Rohit", "pune", "tmt steel"} {
		rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/messages",
			`{"body":"`+body+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+opened.SessionID+"/rfq", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "wa.me"))
	assert.True(t, strings.Contains(rec.Body.String(), "mailto:"))
}

func TestProbes(t *testing.T) {
	router := newTestHandler(t, &stubAssistant{})

	for _, path := range []string{"/health", "/live", "/ready"} {
		rec := doJSON(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
