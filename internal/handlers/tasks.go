package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

func GetTasks(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	query := database.DB.Where("user_id = ?", userID)
	switch c.Query("completed") {
	case "true":
		query = query.Where("completed = ?", true)
	case "false":
		query = query.Where("completed = ?", false)
	}
	if c.Query("starred") == "true" {
		query = query.Where("is_starred = ?", true)
	}

	var tasks []models.Task
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch tasks",
		})
	}
	return c.JSON(tasks)
}

func CreateTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateTaskRequest
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

	task := models.Task{
		Title:             req.Title,
		Description:       req.Description,
		Priority:          models.PriorityMedium,
		DueDate:           req.DueDate,
		ScheduledTime:     req.ScheduledTime,
		EstimatedMinutes:  req.EstimatedMinutes,
		Tags:              models.StringList(req.Tags),
		ContributionValue: req.ContributionValue,
		UserID:            userID,
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Priority must be high, medium or low",
			})
		}
		task.Priority = *req.Priority
	}
	if req.GoalID != nil {
		var goal models.Goal
		if err := database.DB.First(&goal, "id = ? AND user_id = ?", *req.GoalID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Goal not found",
			})
		}
		task.GoalID = req.GoalID
	}
	if req.MetricID != nil {
		var metric models.Metric
		if err := database.DB.First(&metric, "id = ? AND user_id = ?", *req.MetricID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Metric not found",
			})
		}
		task.MetricID = req.MetricID
	}
	if req.ParentID != nil {
		var parent models.Task
		if err := database.DB.First(&parent, "id = ? AND user_id = ?", *req.ParentID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Parent task not found",
			})
		}
		task.ParentID = req.ParentID
	}

	if err := database.DB.Create(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create task",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// CreateGoalTask creates a task directly under a goal.
func CreateGoalTask(c *fiber.Ctx) error {
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

	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	req.GoalID = &goalID

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Title is required",
		})
	}

	task := models.Task{
		Title:             req.Title,
		Description:       req.Description,
		Priority:          models.PriorityMedium,
		DueDate:           req.DueDate,
		ScheduledTime:     req.ScheduledTime,
		EstimatedMinutes:  req.EstimatedMinutes,
		Tags:              models.StringList(req.Tags),
		ContributionValue: req.ContributionValue,
		GoalID:            &goalID,
		UserID:            userID,
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Priority must be high, medium or low",
			})
		}
		task.Priority = *req.Priority
	}
	if req.MetricID != nil {
		var metric models.Metric
		if err := database.DB.First(&metric, "id = ? AND user_id = ?", *req.MetricID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Metric not found",
			})
		}
		task.MetricID = req.MetricID
	}

	if err := database.DB.Create(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create task",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func GetTask(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid task ID",
		})
	}

	var task models.Task
	if err := database.DB.
		Preload("Subtasks").
		First(&task, "id = ? AND user_id = ?", taskID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Task not found",
		})
	}
	return c.JSON(task)
}

// nextCompletionOrder hands out the user's next completion sequence
// number from the persisted counter. Orders only grow; un-completing a
// task leaves a gap and never frees its number for reuse.
func nextCompletionOrder(db *gorm.DB, userID uuid.UUID) (int, error) {
	var user models.User
	if err := db.Select("id", "last_completion_order").
		First(&user, "id = ?", userID).Error; err != nil {
		return 0, err
	}
	next := user.LastCompletionOrder + 1
	if err := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_completion_order", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// markCompleted flips a task to completed: stamps the completion time,
// assigns the next completion order, and records the contribution on
// the linked metric when one exists and has not been recorded yet.
func markCompleted(db *gorm.DB, task *models.Task, metricID *uuid.UUID, contributionValue *float64) error {
	now := time.Now()
	task.Completed = true
	task.CompletionTime = &now

	order, err := nextCompletionOrder(db, task.UserID)
	if err != nil {
		return err
	}
	task.CompletionOrder = &order

	if metricID != nil {
		task.MetricID = metricID
	}
	if contributionValue != nil {
		task.ContributionValue = contributionValue
	}

	if task.MetricID != nil && task.ContributionValue != nil {
		var metric models.Metric
		err := db.First(&metric, "id = ? AND user_id = ?", *task.MetricID, task.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The linked metric no longer exists; complete the task
			// as if it never had one.
			task.MetricID = nil
			return nil
		}
		if err != nil {
			return err
		}
		if !metric.HasContribution(task.ID) {
			metric.RecordContribution(task.ID, *task.ContributionValue, now)
			if err := db.Model(&metric).Updates(map[string]interface{}{
				"current_value":      metric.CurrentValue,
				"contributions_list": metric.ContributionsList,
			}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// markUncompleted reverses a completion: clears the stamps and removes
// the task's ledger entries from its metric.
func markUncompleted(db *gorm.DB, task *models.Task) error {
	task.Completed = false
	task.CompletionTime = nil
	task.CompletionOrder = nil

	if task.MetricID != nil {
		var metric models.Metric
		if err := db.First(&metric, "id = ? AND user_id = ?", *task.MetricID, task.UserID).Error; err == nil {
			metric.RemoveContribution(task.ID)
			if err := db.Model(&metric).Updates(map[string]interface{}{
				"current_value":      metric.CurrentValue,
				"contributions_list": metric.ContributionsList,
			}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func UpdateTask(c *fiber.Ctx) error {
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

	var req models.UpdateTaskRequest
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
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Priority must be high, medium or low",
			})
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.ScheduledTime != nil {
		task.ScheduledTime = req.ScheduledTime
	}
	if req.EstimatedMinutes != nil {
		task.EstimatedMinutes = req.EstimatedMinutes
	}
	if req.Tags != nil {
		task.Tags = models.StringList(req.Tags)
	}
	if req.ContributionValue != nil {
		task.ContributionValue = req.ContributionValue
	}
	if req.GoalID != nil {
		var goal models.Goal
		if err := database.DB.First(&goal, "id = ? AND user_id = ?", *req.GoalID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Goal not found",
			})
		}
		task.GoalID = req.GoalID
	}
	if req.ParentID != nil {
		if *req.ParentID == task.ID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "A task cannot be its own parent",
			})
		}
		var parent models.Task
		if err := database.DB.First(&parent, "id = ? AND user_id = ?", *req.ParentID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Parent task not found",
			})
		}
		task.ParentID = req.ParentID
	}

	// Completion transitions only fire on an actual state change.
	if req.Completed != nil && *req.Completed != task.Completed {
		if *req.Completed {
			if req.MetricID != nil {
				var metric models.Metric
				if err := database.DB.First(&metric, "id = ? AND user_id = ?", *req.MetricID, userID).Error; err != nil {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
						"detail": "Metric not found",
					})
				}
			}
			if err := markCompleted(database.DB, &task, req.MetricID, req.ContributionValue); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"detail": "Failed to complete task",
				})
			}
		} else {
			if err := markUncompleted(database.DB, &task); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"detail": "Failed to reopen task",
				})
			}
		}
	} else if req.MetricID != nil {
		var metric models.Metric
		if err := database.DB.First(&metric, "id = ? AND user_id = ?", *req.MetricID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Metric not found",
			})
		}
		task.MetricID = req.MetricID
	}

	if err := database.DB.Save(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update task",
		})
	}
	return c.JSON(task)
}

// CompleteTask marks a task completed, optionally linking it to a
// metric and recording a contribution in one call.
func CompleteTask(c *fiber.Ctx) error {
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
	if task.Completed {
		return c.JSON(task)
	}

	var req models.CompleteTaskRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.MetricID != nil {
		var metric models.Metric
		if err := database.DB.First(&metric, "id = ? AND user_id = ?", *req.MetricID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Metric not found",
			})
		}
	}

	if err := markCompleted(database.DB, &task, req.MetricID, req.ContributionValue); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to complete task",
		})
	}
	if err := database.DB.Save(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to complete task",
		})
	}
	return c.JSON(task)
}

// UncompleteTask reopens a completed task and rolls back its metric
// contribution.
func UncompleteTask(c *fiber.Ctx) error {
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
	if !task.Completed {
		return c.JSON(task)
	}

	if err := markUncompleted(database.DB, &task); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to reopen task",
		})
	}
	if err := database.DB.Save(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to reopen task",
		})
	}
	return c.JSON(task)
}

func StarTask(c *fiber.Ctx) error {
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

	var req models.StarTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	task.IsStarred = req.IsStarred
	if err := database.DB.Model(&task).Update("is_starred", task.IsStarred).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update task",
		})
	}
	return c.JSON(task)
}

func ScheduleTask(c *fiber.Ctx) error {
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

	var req models.ScheduleTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	task.ScheduledTime = req.ScheduledTime
	if err := database.DB.Model(&task).Update("scheduled_time", task.ScheduledTime).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to schedule task",
		})
	}
	return c.JSON(task)
}

func DeleteTask(c *fiber.Ctx) error {
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

	if err := database.DB.Delete(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete task",
		})
	}
	return c.JSON(fiber.Map{"message": "Task deleted"})
}
