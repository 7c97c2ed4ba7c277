package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contribution records part of a metric's current value: which task
// contributed how much, and when.
type Contribution struct {
	Value     float64   `json:"value"`
	TaskID    uuid.UUID `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ContributionList is the metric's append-only ledger, stored as one
// canonical JSON text column. The persisted current_value is a cache;
// the ledger is the source of truth.
type ContributionList []Contribution

func (l ContributionList) Value() (driver.Value, error) {
	if l == nil {
		l = ContributionList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan treats malformed or legacy ledger data as an empty ledger. A
// corrupt row must stay readable; its value is rebuilt as tasks complete.
func (l *ContributionList) Scan(value interface{}) error {
	*l = ContributionList{}
	if value == nil {
		return nil
	}
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	var out []Contribution
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	*l = out
	return nil
}

// Sum recomputes the value the ledger accounts for.
func (l ContributionList) Sum() float64 {
	var total float64
	for _, c := range l {
		total += c.Value
	}
	return total
}

type Metric struct {
	ID                uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string           `json:"name" gorm:"not null"`
	Description       *string          `json:"description"`
	Type              string           `json:"type" gorm:"not null;default:'target'"` // target or process
	Unit              string           `json:"unit"`
	TargetValue       *float64         `json:"targetValue"`
	CurrentValue      float64          `json:"currentValue" gorm:"default:0"`
	ContributionsList ContributionList `json:"contributionsList" gorm:"type:text"`
	GoalID            uuid.UUID        `json:"goalId" gorm:"type:uuid;index;not null"`
	UserID            uuid.UUID        `json:"userId" gorm:"type:uuid;index;not null"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`

	// Tasks linked to this metric keep existing when the metric dies;
	// their metric_id is nulled however the delete happens, including
	// a goal-delete cascading through the metric.
	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:MetricID;constraint:OnDelete:SET NULL"`
}

func (m *Metric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RecordContribution appends a ledger entry and recomputes the cached
// current value. Duplicate guarding is the caller's job: tasks are only
// recorded when not yet assigned to a metric.
func (m *Metric) RecordContribution(taskID uuid.UUID, value float64, ts time.Time) {
	m.ContributionsList = append(m.ContributionsList, Contribution{
		Value:     value,
		TaskID:    taskID,
		Timestamp: ts,
	})
	m.CurrentValue = m.ContributionsList.Sum()
}

// RemoveContribution drops every ledger entry for the task and recomputes
// the cached current value. Used when a task is un-completed.
func (m *Metric) RemoveContribution(taskID uuid.UUID) {
	kept := m.ContributionsList[:0]
	for _, c := range m.ContributionsList {
		if c.TaskID != taskID {
			kept = append(kept, c)
		}
	}
	m.ContributionsList = kept
	m.CurrentValue = m.ContributionsList.Sum()
}

// HasContribution reports whether the ledger already records the task.
func (m *Metric) HasContribution(taskID uuid.UUID) bool {
	for _, c := range m.ContributionsList {
		if c.TaskID == taskID {
			return true
		}
	}
	return false
}

func ValidMetricType(t string) bool {
	return t == "target" || t == "process"
}

// Metric DTOs
type CreateMetricRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	Unit        string   `json:"unit"`
	TargetValue *float64 `json:"targetValue"`
}

type UpdateMetricRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	Unit        *string  `json:"unit"`
	TargetValue *float64 `json:"targetValue"`
}
