package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
	"github.com/strideapp/stride-api/internal/services"
)

// RecommendTask suggests the single task the user should do next.
func RecommendTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var tasks []models.Task
	if err := database.DB.
		Where("user_id = ? AND completed = ?", userID, false).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch tasks",
		})
	}

	rec, err := services.AI.RecommendTask(c.Context(), tasks)
	if err != nil {
		if errors.Is(err, services.ErrNoCandidates) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "No incomplete tasks to recommend",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to generate recommendation",
		})
	}
	return c.JSON(rec)
}

// RecommendGoal returns the top three goals the user should focus on.
func RecommendGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var goals []models.Goal
	if err := database.DB.
		Preload("Tasks").
		Preload("Metrics").
		Preload("Targets").
		Preload("Subgoals").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch goals",
		})
	}

	recs, err := services.AI.TopGoalRecommendations(c.Context(), goals, 3)
	if err != nil {
		if errors.Is(err, services.ErrNoCandidates) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "No goals to recommend",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to generate recommendations",
		})
	}
	return c.JSON(recs)
}

// ChatWithGoals answers a free-form question grounded in the user's
// goals. There is no deterministic fallback here, so provider
// exhaustion surfaces as a gateway error.
func ChatWithGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.ChatWithGoalsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Message is required",
		})
	}

	var goals []models.Goal
	if err := database.DB.
		Preload("Tasks").
		Preload("Targets").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch goals",
		})
	}

	reply, err := services.AI.ChatAboutGoals(c.Context(), goals, req.Messages, req.Message)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"detail": "The AI assistant is unavailable right now",
		})
	}
	return c.JSON(fiber.Map{"response": reply})
}

// BreakdownTask asks the assistant to split a task into subtasks.
func BreakdownTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid task ID",
		})
	}

	var task models.Task
	if err := database.DB.First(&task, "id = ? AND user_id = ?", taskID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Task not found",
		})
	}

	var req models.BreakdownTaskRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	customPrompt := ""
	if req.CustomPrompt != nil {
		customPrompt = *req.CustomPrompt
	}

	result := services.AI.BreakdownTask(c.Context(), task, customPrompt, req.Messages)
	return c.JSON(result)
}
