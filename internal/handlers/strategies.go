package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

func GetGoalStrategies(c *fiber.Ctx) error {
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

	var strategies []models.Strategy
	if err := database.DB.
		Where("goal_id = ?", goalID).
		Order("created_at DESC").
		Find(&strategies).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch strategies",
		})
	}
	return c.JSON(strategies)
}

// CreateGoalStrategy stores a strategy and makes it the goal's current
// one.
func CreateGoalStrategy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}
	goal, err := userGoal(goalID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var req models.CreateStrategyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Title is required",
		})
	}
	if len(req.Steps) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "At least one step is required",
		})
	}

	strategy := models.Strategy{
		Title:  req.Title,
		Steps:  models.StringList(req.Steps),
		GoalID: goalID,
	}
	if err := database.DB.Create(&strategy).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create strategy",
		})
	}

	goal.CurrentStrategyID = &strategy.ID
	database.DB.Model(goal).Update("current_strategy_id", strategy.ID)

	return c.Status(fiber.StatusCreated).JSON(strategy)
}

func userStrategy(strategyID, userID uuid.UUID) (*models.Strategy, error) {
	var strategy models.Strategy
	if err := database.DB.
		Joins("JOIN goals ON goals.id = strategies.goal_id").
		Where("strategies.id = ? AND goals.user_id = ?", strategyID, userID).
		First(&strategy).Error; err != nil {
		return nil, err
	}
	return &strategy, nil
}

func UpdateStrategy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	strategyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid strategy ID",
		})
	}

	strategy, err := userStrategy(strategyID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Strategy not found",
		})
	}

	var req models.UpdateStrategyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	if req.Title != nil {
		if *req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Title cannot be empty",
			})
		}
		strategy.Title = *req.Title
	}
	if req.Steps != nil {
		strategy.Steps = models.StringList(req.Steps)
	}

	if err := database.DB.Save(strategy).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update strategy",
		})
	}
	return c.JSON(strategy)
}

func DeleteStrategy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	strategyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid strategy ID",
		})
	}

	strategy, err := userStrategy(strategyID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Strategy not found",
		})
	}

	// Clear the goal's pointer when it referenced this strategy.
	database.DB.Model(&models.Goal{}).
		Where("current_strategy_id = ?", strategy.ID).
		Update("current_strategy_id", nil)

	if err := database.DB.Delete(strategy).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete strategy",
		})
	}
	return c.JSON(fiber.Map{"message": "Strategy deleted"})
}
