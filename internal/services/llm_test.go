package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride-api/internal/models"
)

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatFirstProviderWins(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[{"message":{"content":"hello"}}]}`)
	svc := &AIService{Providers: []Provider{
		&OpenRouterProvider{APIKey: "k", Model: "m", BaseURL: srv.URL, Client: srv.Client()},
	}}

	content, err := svc.chat(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}}, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestChatFallsThroughToSecondProvider(t *testing.T) {
	failing := chatServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`)
	working := chatServer(t, http.StatusOK, `{"choices":[{"message":{"content":"from sambanova"}}]}`)

	svc := &AIService{Providers: []Provider{
		&OpenRouterProvider{APIKey: "k", Model: "m", BaseURL: failing.URL, Client: failing.Client()},
		&SambaNovaProvider{APIKey: "k", Model: "m", BaseURL: working.URL, Client: working.Client()},
	}}

	content, err := svc.chat(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}}, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "from sambanova", content)
}

func TestChatExhaustion(t *testing.T) {
	failing := chatServer(t, http.StatusInternalServerError, `boom`)
	svc := &AIService{Providers: []Provider{
		&OpenRouterProvider{APIKey: "k", Model: "m", BaseURL: failing.URL, Client: failing.Client()},
	}}

	_, err := svc.chat(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}}, ChatOptions{})
	assert.ErrorIs(t, err, ErrProvidersExhausted)
}

func TestChatNoProviders(t *testing.T) {
	svc := &AIService{}
	_, err := svc.chat(context.Background(), nil, ChatOptions{})
	assert.ErrorIs(t, err, ErrProvidersExhausted)

	var nilSvc *AIService
	assert.False(t, nilSvc.Enabled())
}

func TestChatEmptyContentFallsBackToReasoning(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[{"message":{"content":"","reasoning":"the actual answer"}}]}`)
	svc := &AIService{Providers: []Provider{
		&OpenRouterProvider{APIKey: "k", Model: "m", BaseURL: srv.URL, Client: srv.Client()},
	}}

	content, err := svc.chat(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}}, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "the actual answer", content)
}

func TestStripBoxed(t *testing.T) {
	assert.Equal(t, `{"goal_id": "x"}`, stripBoxed(`\boxed{{"goal_id": "x"}}`))
	assert.Equal(t, "plain text", stripBoxed("plain text"))
}
