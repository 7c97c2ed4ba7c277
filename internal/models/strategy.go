package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Strategy is an ordered plan of steps for pursuing a goal. A goal may
// point at one of its strategies via CurrentStrategyID.
type Strategy struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string     `json:"title" gorm:"not null"`
	Steps     StringList `json:"steps" gorm:"type:text"`
	GoalID    uuid.UUID  `json:"goalId" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s *Strategy) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type CreateStrategyRequest struct {
	Title string   `json:"title" validate:"required"`
	Steps []string `json:"steps" validate:"required"`
}

type UpdateStrategyRequest struct {
	Title *string  `json:"title"`
	Steps []string `json:"steps"`
}
