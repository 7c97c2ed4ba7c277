package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
	"github.com/strideapp/stride-api/internal/services"
)

// userGoal loads a goal scoped to the requesting user. Goals owned by
// other users are indistinguishable from missing ones.
func userGoal(goalID, userID uuid.UUID) (*models.Goal, error) {
	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func GetGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	query := database.DB.Where("user_id = ?", userID)
	if c.Query("top_level") == "true" {
		query = query.Where("parent_id IS NULL")
	}

	var goals []models.Goal
	if err := query.
		Preload("Tasks").
		Preload("Metrics").
		Preload("Targets").
		Order("created_at ASC").
		Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch goals",
		})
	}
	return c.JSON(goals)
}

func CreateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateGoalRequest
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

	goal := models.Goal{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.PriorityMedium,
		UserID:      userID,
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Priority must be high, medium or low",
			})
		}
		goal.Priority = *req.Priority
	}
	if req.ParentID != nil {
		var parent models.Goal
		if err := database.DB.First(&parent, "id = ? AND user_id = ?", *req.ParentID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Parent goal not found",
			})
		}
		goal.ParentID = req.ParentID
	}

	if err := database.DB.Create(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create goal",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func GetGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.
		Preload("Tasks").
		Preload("Metrics").
		Preload("Targets").
		Preload("Subgoals").
		First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}
	return c.JSON(goal)
}

// GetGoalTree returns the goal with every descendant branch expanded.
func GetGoalTree(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}

	goal, err := services.LoadGoalTree(database.DB, userID, goalID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}
	return c.JSON(goal)
}

func UpdateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var req models.UpdateGoalRequest
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
		goal.Title = *req.Title
	}
	if req.Description != nil {
		goal.Description = req.Description
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Priority must be high, medium or low",
			})
		}
		goal.Priority = *req.Priority
	}
	if req.CurrentStrategyID != nil {
		var strategy models.Strategy
		if err := database.DB.First(&strategy, "id = ? AND goal_id = ?", *req.CurrentStrategyID, goal.ID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Strategy not found",
			})
		}
		goal.CurrentStrategyID = req.CurrentStrategyID
	}

	// Re-parenting is validated before anything is written: the new
	// parent must exist, belong to the user, and not sit in this
	// goal's own subtree.
	if req.ClearParent {
		goal.ParentID = nil
	} else if req.ParentID != nil {
		if *req.ParentID == goal.ID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "A goal cannot be its own parent",
			})
		}
		var parent models.Goal
		if err := database.DB.First(&parent, "id = ? AND user_id = ?", *req.ParentID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Parent goal not found",
			})
		}
		cyclic, err := services.GoalIsDescendant(database.DB, goal.ID, *req.ParentID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail": "Failed to validate goal hierarchy",
			})
		}
		if cyclic {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Cannot move a goal under its own descendant",
			})
		}
		goal.ParentID = req.ParentID
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update goal",
		})
	}
	return c.JSON(goal)
}

func DeleteGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	if err := database.DB.Delete(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete goal",
		})
	}
	return c.JSON(fiber.Map{"message": "Goal deleted"})
}

func GetGoalTasks(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var tasks []models.Task
	if err := database.DB.
		Where("goal_id = ? AND user_id = ?", goalID, userID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch tasks",
		})
	}
	return c.JSON(tasks)
}

func GetGoalSubgoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var subgoals []models.Goal
	if err := database.DB.
		Where("parent_id = ? AND user_id = ?", goalID, userID).
		Order("created_at ASC").
		Find(&subgoals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch subgoals",
		})
	}
	return c.JSON(subgoals)
}
