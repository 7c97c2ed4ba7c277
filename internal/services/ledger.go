package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/strideapp/stride-api/internal/models"
)

// ReassignTasksToMetric links a goal's completed-but-unlinked tasks to
// a newly created metric and records their contributions. Only tasks
// that declared a contribution value are picked up; tasks already
// linked to another metric are left alone. Oldest tasks first so the
// ledger reads in completion order.
func ReassignTasksToMetric(db *gorm.DB, metric *models.Metric) (int, error) {
	var tasks []models.Task
	if err := db.
		Where("goal_id = ? AND completed = ? AND metric_id IS NULL AND contribution_value IS NOT NULL", metric.GoalID, true).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return 0, err
	}

	reassigned := 0
	for i := range tasks {
		task := &tasks[i]
		if metric.HasContribution(task.ID) {
			continue
		}

		ts := time.Now()
		if task.CompletionTime != nil {
			ts = *task.CompletionTime
		}
		metric.RecordContribution(task.ID, *task.ContributionValue, ts)

		task.MetricID = &metric.ID
		if err := db.Model(task).Update("metric_id", metric.ID).Error; err != nil {
			return reassigned, err
		}
		reassigned++
	}

	if reassigned > 0 {
		if err := db.Model(metric).Updates(map[string]interface{}{
			"current_value":      metric.CurrentValue,
			"contributions_list": metric.ContributionsList,
		}).Error; err != nil {
			return reassigned, err
		}
	}
	return reassigned, nil
}
