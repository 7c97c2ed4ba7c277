package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/strideapp/stride-api/internal/config"
	"github.com/strideapp/stride-api/internal/models"
)

var (
	// ErrNoCandidates is returned when a recommendation is requested
	// over an empty list. Callers must surface it, never fabricate a
	// recommendation.
	ErrNoCandidates = errors.New("no candidates to recommend from")

	// ErrProvidersExhausted means every configured provider was tried
	// once and failed.
	ErrProvidersExhausted = errors.New("all LLM providers failed")
)

// ChatOptions tune a single chat-completion call.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
	JSONObject  bool
}

// Provider is one LLM backend. Providers are tried in order, each at
// most once per request; there are no per-provider retries.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []models.ChatMessage, opts ChatOptions) (string, error)
}

// Both providers speak the OpenAI chat-completions wire format.
type chatCompletionRequest struct {
	Model          string               `json:"model"`
	Messages       []models.ChatMessage `json:"messages"`
	Temperature    float64              `json:"temperature"`
	MaxTokens      int                  `json:"max_tokens"`
	Stream         bool                 `json:"stream"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
		} `json:"message"`
	} `json:"choices"`
}

func newLLMClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func postChatCompletion(ctx context.Context, client *http.Client, url string, headers map[string]string, reqBody chatCompletionRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed chat API response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("no choices in chat API response")
	}

	content := parsed.Choices[0].Message.Content
	// Some reasoning models return an empty content with the answer in
	// the reasoning field.
	if content == "" {
		content = parsed.Choices[0].Message.Reasoning
	}
	if content == "" {
		return "", errors.New("empty content in chat API response")
	}
	return stripBoxed(content), nil
}

// stripBoxed removes the \boxed{...} wrapper some DeepSeek responses
// arrive in.
func stripBoxed(content string) string {
	if strings.HasPrefix(content, `\boxed{`) && strings.HasSuffix(content, "}") {
		return strings.TrimSuffix(strings.TrimPrefix(content, `\boxed{`), "}")
	}
	return content
}

// OpenRouterProvider calls DeepSeek (or any model) through OpenRouter.
type OpenRouterProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Chat(ctx context.Context, messages []models.ChatMessage, opts ChatOptions) (string, error) {
	req := chatCompletionRequest{
		Model:       p.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONObject {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	headers := map[string]string{
		"Authorization": "Bearer " + p.APIKey,
		"HTTP-Referer":  "https://stride-app.com",
		"X-Title":       "Stride",
	}
	return postChatCompletion(ctx, p.Client, p.BaseURL+"/chat/completions", headers, req)
}

// SambaNovaProvider calls SambaNova's OpenAI-compatible endpoint.
type SambaNovaProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func (p *SambaNovaProvider) Name() string { return "sambanova" }

func (p *SambaNovaProvider) Chat(ctx context.Context, messages []models.ChatMessage, opts ChatOptions) (string, error) {
	req := chatCompletionRequest{
		Model:       p.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + p.APIKey,
	}
	return postChatCompletion(ctx, p.Client, p.BaseURL+"/chat/completions", headers, req)
}

// AIService runs the ordered provider chain. A nil or empty service is
// valid and means "deterministic fallback only".
type AIService struct {
	Providers []Provider
}

// Global AI service instance
var AI *AIService

// InitAI builds the provider chain from configured keys.
func InitAI(cfg *config.Config) {
	svc := &AIService{}
	client := newLLMClient()

	if cfg.OpenRouterAPIKey != "" {
		svc.Providers = append(svc.Providers, &OpenRouterProvider{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.OpenRouterModel,
			BaseURL: "https://openrouter.ai/api/v1",
			Client:  client,
		})
	}
	if cfg.SambaNovaAPIKey != "" {
		svc.Providers = append(svc.Providers, &SambaNovaProvider{
			APIKey:  cfg.SambaNovaAPIKey,
			Model:   cfg.SambaNovaModel,
			BaseURL: cfg.SambaNovaAPIURL,
			Client:  client,
		})
	}

	if len(svc.Providers) == 0 {
		log.Println("AI: no provider keys configured, using fallback recommendations only")
	} else {
		names := make([]string, len(svc.Providers))
		for i, p := range svc.Providers {
			names[i] = p.Name()
		}
		log.Printf("AI: providers enabled: %s", strings.Join(names, ", "))
	}
	AI = svc
}

// Enabled reports whether at least one provider is configured.
func (s *AIService) Enabled() bool {
	return s != nil && len(s.Providers) > 0
}

// chat walks the provider chain: each provider is tried at most once,
// the first success wins, exhaustion is a typed error for the caller's
// fallback path.
func (s *AIService) chat(ctx context.Context, messages []models.ChatMessage, opts ChatOptions) (string, error) {
	if !s.Enabled() {
		return "", ErrProvidersExhausted
	}
	var errs []error
	for _, p := range s.Providers {
		content, err := p.Chat(ctx, messages, opts)
		if err == nil {
			return content, nil
		}
		log.Printf("AI: provider %s failed: %v", p.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", fmt.Errorf("%w: %w", ErrProvidersExhausted, errors.Join(errs...))
}
