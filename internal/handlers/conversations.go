package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

func userConversation(conversationID, userID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := database.DB.
		Joins("JOIN goals ON goals.id = conversations.goal_id").
		Where("conversations.id = ? AND goals.user_id = ?", conversationID, userID).
		First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func GetGoalConversations(c *fiber.Ctx) error {
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

	var conversations []models.Conversation
	if err := database.DB.
		Where("goal_id = ?", goalID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch conversations",
		})
	}
	return c.JSON(conversations)
}

func CreateGoalConversation(c *fiber.Ctx) error {
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

	var req models.CreateConversationRequest
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

	conversation := models.Conversation{
		Title:  req.Title,
		GoalID: goalID,
	}
	if err := database.DB.Create(&conversation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create conversation",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(conversation)
}

func GetConversation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid conversation ID",
		})
	}

	conversation, err := userConversation(conversationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Conversation not found",
		})
	}

	var messages []models.Message
	if err := database.DB.
		Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch messages",
		})
	}
	conversation.Messages = messages
	return c.JSON(conversation)
}

// CreateConversationMessage appends a message and bumps the
// conversation's updated_at so listings sort by recency.
func CreateConversationMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid conversation ID",
		})
	}

	conversation, err := userConversation(conversationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Conversation not found",
		})
	}

	var req models.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.Role != "user" && req.Role != "assistant" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Role must be user or assistant",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Content is required",
		})
	}

	message := models.Message{
		Role:           req.Role,
		Content:        req.Content,
		ConversationID: conversation.ID,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create message",
		})
	}
	database.DB.Model(conversation).Update("updated_at", time.Now())

	return c.Status(fiber.StatusCreated).JSON(message)
}

func DeleteConversation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid conversation ID",
		})
	}

	conversation, err := userConversation(conversationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Conversation not found",
		})
	}

	if err := database.DB.Delete(conversation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete conversation",
		})
	}
	return c.JSON(fiber.Map{"message": "Conversation deleted"})
}
