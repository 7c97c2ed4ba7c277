package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
	"github.com/strideapp/stride-api/internal/services"
)

// userTarget loads a target and checks, through its goal, that it
// belongs to the requesting user.
func userTarget(targetID, userID uuid.UUID) (*models.GoalTarget, error) {
	var target models.GoalTarget
	if err := database.DB.
		Joins("JOIN goals ON goals.id = goal_targets.goal_id").
		Where("goal_targets.id = ? AND goals.user_id = ?", targetID, userID).
		First(&target).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

func GetGoalTargets(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
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

	var targets []models.GoalTarget
	if err := database.DB.
		Preload("Subtargets").
		Where("goal_id = ? AND parent_id IS NULL", goalID).
		Order("position ASC, created_at ASC").
		Find(&targets).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch targets",
		})
	}
	return c.JSON(targets)
}

func CreateGoalTarget(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
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

	var req models.CreateTargetRequest
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

	target := models.GoalTarget{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      "concept",
		Notes:       models.StringList(req.Notes),
		GoalID:      goalID,
	}
	if req.Status != nil {
		if !models.ValidTargetStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Status must be concept, active, paused or achieved",
			})
		}
		target.Status = *req.Status
	}
	if req.Position != nil {
		target.Position = *req.Position
	}
	if req.ParentID != nil {
		parent, err := userTarget(*req.ParentID, userID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Parent target not found",
			})
		}
		if parent.GoalID != goalID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Parent target belongs to a different goal",
			})
		}
		target.ParentID = req.ParentID
	}

	if err := database.DB.Create(&target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create target",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(target)
}

func GetTarget(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid target ID",
		})
	}

	target, err := userTarget(targetID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Target not found",
		})
	}
	if err := database.DB.Preload("Subtargets").First(target, "id = ?", target.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch target",
		})
	}
	return c.JSON(target)
}

func UpdateTarget(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid target ID",
		})
	}

	target, err := userTarget(targetID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Target not found",
		})
	}

	var req models.UpdateTargetRequest
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
		target.Title = *req.Title
	}
	if req.Description != nil {
		target.Description = req.Description
	}
	if req.Deadline != nil {
		target.Deadline = req.Deadline
	}
	if req.Status != nil {
		if !models.ValidTargetStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Status must be concept, active, paused or achieved",
			})
		}
		target.Status = *req.Status
	}
	if req.Notes != nil {
		target.Notes = models.StringList(req.Notes)
	}
	if req.Position != nil {
		target.Position = *req.Position
	}

	if req.ClearParent {
		target.ParentID = nil
	} else if req.ParentID != nil {
		if *req.ParentID == target.ID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "A target cannot be its own parent",
			})
		}
		parent, err := userTarget(*req.ParentID, userID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Parent target not found",
			})
		}
		if parent.GoalID != target.GoalID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Parent target belongs to a different goal",
			})
		}
		cyclic, err := services.TargetIsDescendant(database.DB, target.ID, *req.ParentID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail": "Failed to validate target hierarchy",
			})
		}
		if cyclic {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Cannot move a target under its own descendant",
			})
		}
		target.ParentID = req.ParentID
	}

	if err := database.DB.Save(target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update target",
		})
	}
	return c.JSON(target)
}

func DeleteTarget(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid target ID",
		})
	}

	target, err := userTarget(targetID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Target not found",
		})
	}

	if err := database.DB.Delete(target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete target",
		})
	}
	return c.JSON(fiber.Map{"message": "Target deleted"})
}
