package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

func GetGoalNotes(c *fiber.Ctx) error {
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

	var notes []models.Note
	if err := database.DB.
		Where("goal_id = ?", goalID).
		Order("pinned DESC, created_at DESC").
		Find(&notes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch notes",
		})
	}
	return c.JSON(notes)
}

func CreateGoalNote(c *fiber.Ctx) error {
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

	var req models.CreateNoteRequest
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

	note := models.Note{
		Content: req.Content,
		Pinned:  req.Pinned,
		GoalID:  goalID,
	}
	if err := database.DB.Create(&note).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create note",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

// userNote resolves a note through its goal's owner.
func userNote(noteID, userID uuid.UUID) (*models.Note, error) {
	var note models.Note
	if err := database.DB.
		Joins("JOIN goals ON goals.id = notes.goal_id").
		Where("notes.id = ? AND goals.user_id = ?", noteID, userID).
		First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func UpdateNote(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	noteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid note ID",
		})
	}

	note, err := userNote(noteID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Note not found",
		})
	}

	var req models.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	if req.Content != nil {
		if *req.Content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Content cannot be empty",
			})
		}
		note.Content = *req.Content
	}
	if req.Pinned != nil {
		note.Pinned = *req.Pinned
	}

	if err := database.DB.Save(note).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update note",
		})
	}
	return c.JSON(note)
}

func DeleteNote(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	noteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid note ID",
		})
	}

	note, err := userNote(noteID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Note not found",
		})
	}

	if err := database.DB.Delete(note).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete note",
		})
	}
	return c.JSON(fiber.Map{"message": "Note deleted"})
}
