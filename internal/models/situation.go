package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Situation is a structured reflection on a planned or completed event
// tied to a goal, broken into phases.
type Situation struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title          string     `json:"title" gorm:"not null"`
	Description    *string    `json:"description"`
	SituationType  string     `json:"situationType" gorm:"not null"` // planned or completed
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Outcome        *string    `json:"outcome"` // success, partial_success, failure
	Score          *int       `json:"score"`   // 1-10 self-assessment
	LessonsLearned *string    `json:"lessonsLearned"`
	GoalID         uuid.UUID  `json:"goalId" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	Phases []Phase `json:"phases,omitempty" gorm:"foreignKey:SituationID;constraint:OnDelete:CASCADE"`
}

func (s *Situation) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Phase struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PhaseName          string    `json:"phaseName" gorm:"not null"`
	ApproachUsed       *string   `json:"approachUsed"`
	EffectivenessScore *int      `json:"effectivenessScore"` // 1-10
	ResponseOutcome    *string   `json:"responseOutcome"`
	Notes              *string   `json:"notes"`
	SituationID        uuid.UUID `json:"situationId" gorm:"type:uuid;index;not null"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (p *Phase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func ValidSituationType(t string) bool {
	return t == "planned" || t == "completed"
}

func ValidOutcome(o string) bool {
	switch o {
	case "success", "partial_success", "failure":
		return true
	}
	return false
}

// Situation DTOs
type CreatePhaseRequest struct {
	PhaseName          string  `json:"phaseName" validate:"required"`
	ApproachUsed       *string `json:"approachUsed"`
	EffectivenessScore *int    `json:"effectivenessScore"`
	ResponseOutcome    *string `json:"responseOutcome"`
	Notes              *string `json:"notes"`
}

type CreateSituationRequest struct {
	Title          string               `json:"title" validate:"required"`
	Description    *string              `json:"description"`
	SituationType  string               `json:"situationType" validate:"required"`
	StartTime      *time.Time           `json:"startTime"`
	EndTime        *time.Time           `json:"endTime"`
	Outcome        *string              `json:"outcome"`
	Score          *int                 `json:"score"`
	LessonsLearned *string              `json:"lessonsLearned"`
	Phases         []CreatePhaseRequest `json:"phases"`
}

type UpdateSituationRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	SituationType  *string    `json:"situationType"`
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Outcome        *string    `json:"outcome"`
	Score          *int       `json:"score"`
	LessonsLearned *string    `json:"lessonsLearned"`
}

type UpdatePhaseRequest struct {
	PhaseName          *string `json:"phaseName"`
	ApproachUsed       *string `json:"approachUsed"`
	EffectivenessScore *int    `json:"effectivenessScore"`
	ResponseOutcome    *string `json:"responseOutcome"`
	Notes              *string `json:"notes"`
}
