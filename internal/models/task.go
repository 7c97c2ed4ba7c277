package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title             string     `json:"title" gorm:"not null;index"`
	Description       *string    `json:"description"`
	Completed         bool       `json:"completed" gorm:"default:false"`
	Priority          string     `json:"priority" gorm:"not null;default:'medium'"`
	DueDate           *time.Time `json:"dueDate"`
	ScheduledTime     *time.Time `json:"scheduledTime"`
	CompletionTime    *time.Time `json:"completionTime"`
	CompletionOrder   *int       `json:"completionOrder" gorm:"index"`
	ContributionValue *float64   `json:"contributionValue"`
	EstimatedMinutes  *int       `json:"estimatedMinutes"`
	Tags              StringList `json:"tags" gorm:"type:text"`
	IsStarred         bool       `json:"isStarred" gorm:"default:false"`
	HasReminders      bool       `json:"hasReminders" gorm:"default:false"`
	ParentID          *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	GoalID            *uuid.UUID `json:"goalId" gorm:"type:uuid;index"`
	MetricID          *uuid.UUID `json:"metricId" gorm:"type:uuid;index"`
	UserID            uuid.UUID  `json:"userId" gorm:"type:uuid;index;not null"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	Subtasks []Task `json:"subtasks,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Task DTOs
type CreateTaskRequest struct {
	Title             string     `json:"title" validate:"required"`
	Description       *string    `json:"description"`
	Priority          *string    `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	ScheduledTime     *time.Time `json:"scheduledTime"`
	EstimatedMinutes  *int       `json:"estimatedMinutes"`
	Tags              []string   `json:"tags"`
	ParentID          *uuid.UUID `json:"parentId"`
	GoalID            *uuid.UUID `json:"goalId"`
	MetricID          *uuid.UUID `json:"metricId"`
	ContributionValue *float64   `json:"contributionValue"`
}

type UpdateTaskRequest struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Completed         *bool      `json:"completed"`
	Priority          *string    `json:"priority"`
	DueDate           *time.Time `json:"dueDate"`
	ScheduledTime     *time.Time `json:"scheduledTime"`
	EstimatedMinutes  *int       `json:"estimatedMinutes"`
	Tags              []string   `json:"tags"`
	ParentID          *uuid.UUID `json:"parentId"`
	GoalID            *uuid.UUID `json:"goalId"`
	MetricID          *uuid.UUID `json:"metricId"`
	ContributionValue *float64   `json:"contributionValue"`
}

type CompleteTaskRequest struct {
	MetricID          *uuid.UUID `json:"metricId"`
	ContributionValue *float64   `json:"contributionValue"`
}

type StarTaskRequest struct {
	IsStarred bool `json:"isStarred"`
}

type ScheduleTaskRequest struct {
	ScheduledTime *time.Time `json:"scheduledTime"`
}

type BreakdownTaskRequest struct {
	CustomPrompt *string       `json:"customPrompt"`
	Messages     []ChatMessage `json:"messages"`
}

// ChatMessage is a single turn in an LLM conversation, reused by the
// breakdown and goal-chat endpoints.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
