package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder types. "smart" marks reminders whose time was picked by the
// recommender rather than the user.
const (
	ReminderOneTime          = "one_time"
	ReminderRecurringDaily   = "recurring_daily"
	ReminderRecurringWeekly  = "recurring_weekly"
	ReminderRecurringMonthly = "recurring_monthly"
	ReminderSmart            = "smart"
)

const (
	ReminderStatusPending   = "pending"
	ReminderStatusSent      = "sent"
	ReminderStatusDismissed = "dismissed"
)

type Reminder struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string     `json:"title" gorm:"not null"`
	Message      *string    `json:"message"`
	ReminderTime time.Time  `json:"reminderTime" gorm:"not null;index"`
	ReminderType string     `json:"reminderType" gorm:"not null;default:'one_time'"`
	Status       string     `json:"status" gorm:"not null;default:'pending'"`
	TaskID       *uuid.UUID `json:"taskId" gorm:"type:uuid;index"`
	UserID       uuid.UUID  `json:"userId" gorm:"type:uuid;index;not null"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func ValidReminderType(t string) bool {
	switch t {
	case ReminderOneTime, ReminderRecurringDaily, ReminderRecurringWeekly, ReminderRecurringMonthly, ReminderSmart:
		return true
	}
	return false
}

type CreateReminderRequest struct {
	Title        string     `json:"title" validate:"required"`
	Message      *string    `json:"message"`
	ReminderTime time.Time  `json:"reminderTime" validate:"required"`
	ReminderType *string    `json:"reminderType"`
	TaskID       *uuid.UUID `json:"taskId"`
}

type UpdateReminderRequest struct {
	Title        *string    `json:"title"`
	Message      *string    `json:"message"`
	ReminderTime *time.Time `json:"reminderTime"`
	ReminderType *string    `json:"reminderType"`
	Status       *string    `json:"status"`
}
