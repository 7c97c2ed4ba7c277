package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

func GetGoalExperiences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}
	if _, err := userGoal(goalID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var experiences []models.Experience
	if err := database.DB.
		Where("goal_id = ?", goalID).
		Order("created_at DESC").
		Find(&experiences).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch experiences",
		})
	}
	return c.JSON(experiences)
}

func CreateGoalExperience(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}
	if _, err := userGoal(goalID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var req models.CreateExperienceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Content is required",
		})
	}
	if req.Type != "positive" && req.Type != "negative" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Type must be positive or negative",
		})
	}

	experience := models.Experience{
		Content: req.Content,
		Type:    req.Type,
		GoalID:  goalID,
	}
	if err := database.DB.Create(&experience).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create experience",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(experience)
}

func DeleteExperience(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	experienceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid experience ID",
		})
	}

	var experience models.Experience
	if err := database.DB.
		Joins("JOIN goals ON goals.id = experiences.goal_id").
		Where("experiences.id = ? AND goals.user_id = ?", experienceID, userID).
		First(&experience).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Experience not found",
		})
	}

	if err := database.DB.Delete(&experience).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete experience",
		})
	}
	return c.JSON(fiber.Map{"message": "Experience deleted"})
}
