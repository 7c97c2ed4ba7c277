package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority levels shared by goals and tasks. Stored as plain strings,
// validated at the API boundary.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type Goal struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title             string     `json:"title" gorm:"not null;index"`
	Description       *string    `json:"description"`
	Priority          string     `json:"priority" gorm:"not null;default:'medium'"`
	ParentID          *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	CurrentStrategyID *uuid.UUID `json:"currentStrategyId" gorm:"type:uuid"`
	UserID            uuid.UUID  `json:"userId" gorm:"type:uuid;index;not null"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	Subgoals      []Goal         `json:"subgoals,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Tasks         []Task         `json:"tasks,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:SET NULL"`
	Metrics       []Metric       `json:"metrics,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Targets       []GoalTarget   `json:"targets,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Notes         []Note         `json:"notes,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Situations    []Situation    `json:"situations,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Conversations []Conversation `json:"conversations,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Strategies    []Strategy     `json:"strategies,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Experiences   []Experience   `json:"experiences,omitempty" gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GoalTarget is a dated sub-objective within a goal. Unlike a metric it
// carries no numeric tracking, only a deadline and a status.
type GoalTarget struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string     `json:"title" gorm:"not null"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status" gorm:"not null;default:'concept'"` // concept, active, paused, achieved
	Notes       StringList `json:"notes" gorm:"type:text"`
	Position    int        `json:"position" gorm:"not null;default:0"`
	GoalID      uuid.UUID  `json:"goalId" gorm:"type:uuid;index;not null"`
	ParentID    *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Subtargets []GoalTarget `json:"subtargets,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

func (t *GoalTarget) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func ValidTargetStatus(s string) bool {
	switch s {
	case "concept", "active", "paused", "achieved":
		return true
	}
	return false
}

// Goal DTOs
type CreateGoalRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	ParentID    *uuid.UUID `json:"parentId"`
}

type UpdateGoalRequest struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Priority          *string    `json:"priority"`
	ParentID          *uuid.UUID `json:"parentId"`
	ClearParent       bool       `json:"clearParent"`
	CurrentStrategyID *uuid.UUID `json:"currentStrategyId"`
}

type CreateTargetRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      *string    `json:"status"`
	Notes       []string   `json:"notes"`
	Position    *int       `json:"position"`
	ParentID    *uuid.UUID `json:"parentId"`
}

type UpdateTargetRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      *string    `json:"status"`
	Notes       []string   `json:"notes"`
	Position    *int       `json:"position"`
	ParentID    *uuid.UUID `json:"parentId"`
	ClearParent bool       `json:"clearParent"`
}
