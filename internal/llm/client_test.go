package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildmart/buildmart-server/internal/config"
	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
	"github.com/buildmart/buildmart-server/internal/knowledge"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	kb, err := knowledge.Load("")
	require.NoError(t, err)

	return New(&config.AssistantConfig{
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     srv.URL,
		MaxTokens:   128,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	}, kb, zap.NewNop()), srv
}

func transcript() []domain.Message {
	return []domain.Message{
		domain.NewMessage(domain.SenderBot, "Welcome to BuildMart!", "en"),
		domain.NewMessage(domain.SenderUser, "what is the price of cement?", "en"),
	}
}

func TestReplySuccess(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"OPC 53 runs Rs 330-450 per bag."}}]}`))
	})

	got, err := client.Reply(context.Background(), transcript(), "en")
	require.NoError(t, err)
	assert.Contains(t, got, "OPC 53")
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestReplyRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
	})

	_, err := client.Reply(context.Background(), transcript(), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRateLimited, apperrors.GetCode(err))
	assert.True(t, apperrors.IsRetriable(err))
	assert.NotContains(t, err.Error(), "slow down", "provider body must not leak")
}

func TestReplyQuotaExhausted(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"insufficient_quota","message":"balance too low"}}`))
	})

	_, err := client.Reply(context.Background(), transcript(), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeQuotaExhausted, apperrors.GetCode(err))
	assert.False(t, apperrors.IsRetriable(err))
	assert.Contains(t, apperrors.UserMessage(err), "contact support")
}

func TestReplyUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Reply(context.Background(), transcript(), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUpstream, apperrors.GetCode(err))
	assert.True(t, apperrors.IsRetriable(err))
}

func TestReplyEmptyChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Reply(context.Background(), transcript(), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeEmptyReply, apperrors.GetCode(err))
}

func TestReplySendsSystemPromptAndRoles(t *testing.T) {
	var got chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := client.Reply(context.Background(), transcript(), "hi")
	require.NoError(t, err)

	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "BuildMart")
	assert.Contains(t, got.Messages[0].Content, "language code hi")
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[2].Role)
	assert.Equal(t, 128, got.MaxTokens)
}
