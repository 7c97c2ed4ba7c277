package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
	"github.com/strideapp/stride-api/internal/services"
)

func GetGoalMetrics(c *fiber.Ctx) error {
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

	var metrics []models.Metric
	if err := database.DB.
		Where("goal_id = ?", goalID).
		Order("created_at ASC").
		Find(&metrics).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch metrics",
		})
	}
	return c.JSON(metrics)
}

// CreateGoalMetric creates a metric and then sweeps the goal's already
// completed tasks into it, so work done before the metric existed still
// counts.
func CreateGoalMetric(c *fiber.Ctx) error {
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

	var req models.CreateMetricRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Name is required",
		})
	}

	metric := models.Metric{
		Name:              req.Name,
		Description:       req.Description,
		Type:              "target",
		Unit:              req.Unit,
		TargetValue:       req.TargetValue,
		ContributionsList: models.ContributionList{},
		GoalID:            goalID,
		UserID:            userID,
	}
	if req.Type != nil {
		if !models.ValidMetricType(*req.Type) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Type must be target or process",
			})
		}
		metric.Type = *req.Type
	}

	if err := database.DB.Create(&metric).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create metric",
		})
	}

	if n, err := services.ReassignTasksToMetric(database.DB, &metric); err != nil {
		log.Printf("metrics: reassigning tasks to %s failed after %d: %v", metric.ID, n, err)
	}

	return c.Status(fiber.StatusCreated).JSON(metric)
}

func GetMetric(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	metricID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid metric ID",
		})
	}

	var metric models.Metric
	if err := database.DB.First(&metric, "id = ? AND user_id = ?", metricID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Metric not found",
		})
	}
	return c.JSON(metric)
}

func UpdateMetric(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	metricID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid metric ID",
		})
	}

	var metric models.Metric
	if err := database.DB.First(&metric, "id = ? AND user_id = ?", metricID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Metric not found",
		})
	}

	var req models.UpdateMetricRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Name cannot be empty",
			})
		}
		metric.Name = *req.Name
	}
	if req.Description != nil {
		metric.Description = req.Description
	}
	if req.Type != nil {
		if !models.ValidMetricType(*req.Type) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Type must be target or process",
			})
		}
		metric.Type = *req.Type
	}
	if req.Unit != nil {
		metric.Unit = *req.Unit
	}
	if req.TargetValue != nil {
		metric.TargetValue = req.TargetValue
	}

	if err := database.DB.Save(&metric).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update metric",
		})
	}
	return c.JSON(metric)
}

func DeleteMetric(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	metricID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid metric ID",
		})
	}

	var metric models.Metric
	if err := database.DB.First(&metric, "id = ? AND user_id = ?", metricID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Metric not found",
		})
	}

	// Tasks keep their contribution values but lose the link.
	if err := database.DB.Model(&models.Task{}).
		Where("metric_id = ?", metric.ID).
		Update("metric_id", nil).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to unlink tasks",
		})
	}

	if err := database.DB.Delete(&metric).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete metric",
		})
	}
	return c.JSON(fiber.Map{"message": "Metric deleted"})
}
