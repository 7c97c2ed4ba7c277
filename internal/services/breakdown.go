package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/strideapp/stride-api/internal/models"
)

// BreakdownResult is the outcome of asking the assistant to split a
// task into subtasks. Success is false when no provider could answer;
// Response then carries a human-readable explanation instead.
type BreakdownResult struct {
	Subtasks []string `json:"subtasks"`
	Response string   `json:"response"`
	Success  bool     `json:"success"`
}

const breakdownSystemPrompt = `You are a productivity assistant that helps users break down tasks into smaller, actionable subtasks. When asked to break down a task, respond with a short introduction followed by a bulleted list of 3 to 7 concrete subtasks. Each bullet should start with "- " and describe one specific action.`

// ExtractSubtasks pulls the actionable lines out of an assistant
// reply: dash or bullet lines first, numbered lines only when no
// bullets were found.
func ExtractSubtasks(content string) []string {
	var subtasks []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			subtasks = append(subtasks, strings.TrimSpace(trimmed[2:]))
		} else if strings.HasPrefix(trimmed, "•") {
			subtasks = append(subtasks, strings.TrimSpace(strings.TrimPrefix(trimmed, "•")))
		}
	}
	if len(subtasks) > 0 {
		return subtasks
	}
	for _, m := range numberedLine.FindAllStringSubmatch(content, -1) {
		subtasks = append(subtasks, strings.TrimSpace(m[1]))
	}
	return subtasks
}

// BreakdownTask asks the provider chain to split a task into subtasks.
// Prior conversation turns are replayed so follow-up refinements keep
// their context.
func (s *AIService) BreakdownTask(ctx context.Context, task models.Task, customPrompt string, history []models.ChatMessage) BreakdownResult {
	if !s.Enabled() {
		return BreakdownResult{
			Subtasks: []string{},
			Response: "AI assistance is not configured. Add the task's subtasks manually.",
			Success:  false,
		}
	}

	description := ""
	if task.Description != nil {
		description = *task.Description
	}

	userPrompt := customPrompt
	if userPrompt == "" {
		userPrompt = fmt.Sprintf("Break down the following task into smaller subtasks.\n\nTask: %s\nDescription: %s\nPriority: %s", task.Title, description, task.Priority)
	}

	messages := []models.ChatMessage{{Role: "system", Content: breakdownSystemPrompt}}
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: "user", Content: userPrompt})

	content, err := s.chat(ctx, messages, ChatOptions{Temperature: 0.7, MaxTokens: 1000})
	if err != nil {
		return BreakdownResult{
			Subtasks: []string{},
			Response: "The AI assistant is unavailable right now. Try again later.",
			Success:  false,
		}
	}

	return BreakdownResult{
		Subtasks: ExtractSubtasks(content),
		Response: content,
		Success:  true,
	}
}
