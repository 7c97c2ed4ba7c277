package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

// refreshHasReminders keeps the task's denormalized flag in sync with
// its pending reminders.
func refreshHasReminders(taskID uuid.UUID) {
	var count int64
	database.DB.Model(&models.Reminder{}).
		Where("task_id = ? AND status = ?", taskID, models.ReminderStatusPending).
		Count(&count)
	database.DB.Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("has_reminders", count > 0)
}

func GetReminders(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	query := database.DB.Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if taskID := c.Query("task_id"); taskID != "" {
		id, err := uuid.Parse(taskID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Invalid task ID",
			})
		}
		query = query.Where("task_id = ?", id)
	}

	var reminders []models.Reminder
	if err := query.Order("reminder_time ASC").Find(&reminders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch reminders",
		})
	}
	return c.JSON(reminders)
}

func GetTaskReminders(c *fiber.Ctx) error {
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

	var reminders []models.Reminder
	if err := database.DB.
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Order("reminder_time ASC").
		Find(&reminders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch reminders",
		})
	}
	return c.JSON(reminders)
}

// GetPendingReminders lists pending reminders whose time has passed,
// the set a notification worker would deliver next.
func GetPendingReminders(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var reminders []models.Reminder
	if err := database.DB.
		Where("user_id = ? AND status = ? AND reminder_time <= ?", userID, models.ReminderStatusPending, time.Now()).
		Order("reminder_time ASC").
		Find(&reminders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch reminders",
		})
	}
	return c.JSON(reminders)
}

func CreateReminder(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateReminderRequest
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
	if req.ReminderTime.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Reminder time is required",
		})
	}

	reminder := models.Reminder{
		Title:        req.Title,
		Message:      req.Message,
		ReminderTime: req.ReminderTime,
		ReminderType: models.ReminderOneTime,
		Status:       models.ReminderStatusPending,
		UserID:       userID,
	}
	if req.ReminderType != nil {
		if !models.ValidReminderType(*req.ReminderType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Invalid reminder type",
			})
		}
		reminder.ReminderType = *req.ReminderType
	}
	if req.TaskID != nil {
		var task models.Task
		if err := database.DB.First(&task, "id = ? AND user_id = ?", *req.TaskID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Task not found",
			})
		}
		reminder.TaskID = req.TaskID
	}

	if err := database.DB.Create(&reminder).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create reminder",
		})
	}
	if reminder.TaskID != nil {
		refreshHasReminders(*reminder.TaskID)
	}
	return c.Status(fiber.StatusCreated).JSON(reminder)
}

func UpdateReminder(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	reminderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid reminder ID",
		})
	}

	var reminder models.Reminder
	if err := database.DB.First(&reminder, "id = ? AND user_id = ?", reminderID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Reminder not found",
		})
	}

	var req models.UpdateReminderRequest
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
		reminder.Title = *req.Title
	}
	if req.Message != nil {
		reminder.Message = req.Message
	}
	if req.ReminderTime != nil {
		reminder.ReminderTime = *req.ReminderTime
	}
	if req.ReminderType != nil {
		if !models.ValidReminderType(*req.ReminderType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Invalid reminder type",
			})
		}
		reminder.ReminderType = *req.ReminderType
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ReminderStatusPending, models.ReminderStatusSent, models.ReminderStatusDismissed:
			reminder.Status = *req.Status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Invalid reminder status",
			})
		}
	}

	if err := database.DB.Save(&reminder).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update reminder",
		})
	}
	if reminder.TaskID != nil {
		refreshHasReminders(*reminder.TaskID)
	}
	return c.JSON(reminder)
}

// DismissReminder is the one-call shortcut for muting a reminder.
func DismissReminder(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	reminderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid reminder ID",
		})
	}

	var reminder models.Reminder
	if err := database.DB.First(&reminder, "id = ? AND user_id = ?", reminderID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Reminder not found",
		})
	}

	reminder.Status = models.ReminderStatusDismissed
	if err := database.DB.Model(&reminder).Update("status", reminder.Status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to dismiss reminder",
		})
	}
	if reminder.TaskID != nil {
		refreshHasReminders(*reminder.TaskID)
	}
	return c.JSON(reminder)
}

func DeleteReminder(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	reminderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid reminder ID",
		})
	}

	var reminder models.Reminder
	if err := database.DB.First(&reminder, "id = ? AND user_id = ?", reminderID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Reminder not found",
		})
	}

	if err := database.DB.Delete(&reminder).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete reminder",
		})
	}
	if reminder.TaskID != nil {
		refreshHasReminders(*reminder.TaskID)
	}
	return c.JSON(fiber.Map{"message": "Reminder deleted"})
}
