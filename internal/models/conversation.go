package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string    `json:"title" gorm:"not null"`
	GoalID    uuid.UUID `json:"goalId" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Role           string    `json:"role" gorm:"not null"` // user or assistant
	Content        string    `json:"content" gorm:"not null"`
	ConversationID uuid.UUID `json:"conversationId" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type CreateConversationRequest struct {
	Title string `json:"title" validate:"required"`
}

type CreateMessageRequest struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type ChatWithGoalsRequest struct {
	Message  string        `json:"message" validate:"required"`
	Messages []ChatMessage `json:"messages"`
}
