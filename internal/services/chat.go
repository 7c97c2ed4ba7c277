package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strideapp/stride-api/internal/models"
)

// ChatAboutGoals answers a free-form user message grounded in a
// summary of the user's goals. Unlike the recommenders there is no
// deterministic fallback; callers surface the error.
func (s *AIService) ChatAboutGoals(ctx context.Context, goals []models.Goal, history []models.ChatMessage, userMessage string) (string, error) {
	if !s.Enabled() {
		return "", ErrProvidersExhausted
	}

	now := time.Now()
	var summary strings.Builder
	for _, g := range goals {
		fmt.Fprintf(&summary, "- %s (priority: %s", g.Title, g.Priority)
		if g.Description != nil && *g.Description != "" {
			fmt.Fprintf(&summary, ", description: %s", *g.Description)
		}
		incomplete := 0
		for _, t := range g.Tasks {
			if !t.Completed {
				incomplete++
			}
		}
		fmt.Fprintf(&summary, ", %d incomplete tasks", incomplete)
		for _, target := range g.Targets {
			if target.Deadline != nil {
				days := wholeDays(target.Deadline.Sub(now))
				fmt.Fprintf(&summary, ", target %q due in %d days", target.Title, days)
			}
		}
		summary.WriteString(")\n")
	}
	if summary.Len() == 0 {
		summary.WriteString("(the user has no goals yet)\n")
	}

	systemPrompt := fmt.Sprintf(`You are a helpful AI assistant for a goal management app. Help the user reflect on and plan their goals.

The user's current goals:
%s
Answer concisely and concretely, referring to the user's actual goals where relevant.`, summary.String())

	messages := []models.ChatMessage{{Role: "system", Content: systemPrompt}}
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: "user", Content: userMessage})

	return s.chat(ctx, messages, ChatOptions{Temperature: 0.7, MaxTokens: 1000})
}
