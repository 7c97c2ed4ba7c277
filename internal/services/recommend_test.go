package services

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride-api/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestFallbackTaskRecommendationPriorityBeatsDueDate(t *testing.T) {
	now := time.Now()
	tasks := []models.Task{
		{ID: uuid.New(), Title: "soon but medium", Priority: models.PriorityMedium, DueDate: timePtr(now.Add(2 * time.Hour))},
		{ID: uuid.New(), Title: "later but high", Priority: models.PriorityHigh, DueDate: timePtr(now.Add(72 * time.Hour))},
	}

	rec, err := FallbackTaskRecommendation(tasks, now)
	require.NoError(t, err)
	assert.Equal(t, "later but high", rec.Title)
	assert.Equal(t, 0.7, rec.AIConfidence)
	assert.Equal(t, "Recommended based on task priority and due date", rec.Reasoning)
}

func TestFallbackTaskRecommendationNilDueDateSortsLast(t *testing.T) {
	now := time.Now()
	tasks := []models.Task{
		{ID: uuid.New(), Title: "no due date", Priority: models.PriorityHigh},
		{ID: uuid.New(), Title: "dated", Priority: models.PriorityHigh, DueDate: timePtr(now.Add(240 * time.Hour))},
	}

	rec, err := FallbackTaskRecommendation(tasks, now)
	require.NoError(t, err)
	assert.Equal(t, "dated", rec.Title)
}

func TestFallbackTaskRecommendationEmpty(t *testing.T) {
	_, err := FallbackTaskRecommendation(nil, time.Now())
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestFallbackGoalRecommendationScoresAndReasoning(t *testing.T) {
	now := time.Now()
	goal := models.Goal{
		ID:        uuid.New(),
		Title:     "Learn piano",
		Priority:  models.PriorityHigh,
		UpdatedAt: now.Add(-20 * 24 * time.Hour),
	}

	rec, err := FallbackGoalRecommendation([]models.Goal{goal}, now)
	require.NoError(t, err)

	// importance 8.0 from priority; urgency 5.0 + 1.5 for 20 days idle
	assert.Equal(t, 8.0, rec.ImportanceScore)
	assert.Equal(t, 6.5, rec.UrgencyScore)
	assert.Equal(t, 0.7, rec.AIConfidence)

	assert.Equal(t,
		"This goal is recommended because this high priority goal hasn't been updated in 20 days, "+
			"it would benefit from defining specific targets, and it's marked as high priority.",
		rec.Reasoning)

	require.Len(t, rec.NextSteps, 1)
	assert.Equal(t, "Create specific targets for this goal", rec.NextSteps[0].Description)
	assert.Equal(t, "strategy", rec.NextSteps[0].Type)
}

func TestFallbackGoalRecommendationDeadlineClauses(t *testing.T) {
	now := time.Now()
	goal := models.Goal{
		ID:        uuid.New(),
		Title:     "Ship release",
		Priority:  models.PriorityMedium,
		UpdatedAt: now,
		Targets: []models.GoalTarget{
			{ID: uuid.New(), Title: "beta out", Deadline: timePtr(now.Add(48 * time.Hour))},
		},
	}

	rec, err := FallbackGoalRecommendation([]models.Goal{goal}, now)
	require.NoError(t, err)

	// urgency 5.0 + 2.0 for a deadline within three days
	assert.Equal(t, 7.0, rec.UrgencyScore)
	assert.Equal(t,
		"This goal is recommended because it has 1 approaching deadline, "+
			"and with the closest deadline only 2 days away.",
		rec.Reasoning)

	require.NotEmpty(t, rec.NextSteps)
	assert.Equal(t, "Focus on target: beta out", rec.NextSteps[0].Description)
	assert.Equal(t, "target", rec.NextSteps[0].Type)
}

func TestFallbackGoalRecommendationNoSignals(t *testing.T) {
	now := time.Now()
	goal := models.Goal{
		ID:        uuid.New(),
		Title:     "Quiet goal",
		Priority:  models.PriorityLow,
		UpdatedAt: now,
		Targets: []models.GoalTarget{
			{ID: uuid.New(), Title: "someday"},
		},
	}

	rec, err := FallbackGoalRecommendation([]models.Goal{goal}, now)
	require.NoError(t, err)
	assert.Equal(t, "Based on priority, targets, and deadlines.", rec.Reasoning)

	require.Len(t, rec.NextSteps, 1)
	assert.Equal(t, "Create a strategy for this goal", rec.NextSteps[0].Description)
}

func TestFallbackGoalRecommendationPicksHighestScore(t *testing.T) {
	now := time.Now()
	goals := []models.Goal{
		{ID: uuid.New(), Title: "low", Priority: models.PriorityLow, UpdatedAt: now},
		{ID: uuid.New(), Title: "high", Priority: models.PriorityHigh, UpdatedAt: now},
		{ID: uuid.New(), Title: "medium", Priority: models.PriorityMedium, UpdatedAt: now},
	}

	rec, err := FallbackGoalRecommendation(goals, now)
	require.NoError(t, err)
	assert.Equal(t, "high", rec.Title)
}

func TestFallbackGoalRecommendationEmpty(t *testing.T) {
	_, err := FallbackGoalRecommendation(nil, time.Now())
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestScoreGoalWorkloadAndMetricBumps(t *testing.T) {
	now := time.Now()
	target := 200.0
	goal := models.Goal{
		ID:        uuid.New(),
		Priority:  models.PriorityMedium,
		UpdatedAt: now,
		Metrics: []models.Metric{
			// below 25 percent progress and an ambitious target
			{ID: uuid.New(), Name: "pages", TargetValue: &target, CurrentValue: 10},
		},
	}
	for i := 0; i < 6; i++ {
		goal.Tasks = append(goal.Tasks, models.Task{ID: uuid.New(), Priority: models.PriorityMedium})
	}

	sc := scoreGoal(goal, now)
	// 5.0 base + 0.5 low progress + 0.5 ambitious target + 1.0 workload
	assert.Equal(t, 7.0, sc.importance)
	assert.Equal(t, 5.0, sc.urgency)
	assert.Equal(t, 6, sc.incompleteTasks)
}

func TestTopGoalRecommendationsConfidenceTracksScore(t *testing.T) {
	svc := &AIService{}
	now := time.Now()

	goals := []models.Goal{
		{ID: uuid.New(), Title: "a", Priority: models.PriorityHigh, UpdatedAt: now},
		{ID: uuid.New(), Title: "b", Priority: models.PriorityMedium, UpdatedAt: now},
		{ID: uuid.New(), Title: "c", Priority: models.PriorityLow, UpdatedAt: now},
		{ID: uuid.New(), Title: "d", Priority: models.PriorityLow, UpdatedAt: now},
	}

	recs, err := svc.TopGoalRecommendations(context.Background(), goals, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "a", recs[0].Title)
	for _, rec := range recs {
		sc := scoreGoal(rec.Goal, now)
		assert.InDelta(t, 0.7+sc.score/20, rec.AIConfidence, 0.01)
	}
	assert.Greater(t, recs[0].AIConfidence, recs[2].AIConfidence)
}

func TestParseRecommendationJSON(t *testing.T) {
	id := uuid.New()
	content := `{"goal_id": "` + id.String() + `", "confidence": 0.9, "reasoning": "deadline pressure", "importance_score": 9.1, "urgency_score": 8.2, "next_steps": [{"description": "do it", "type": "task"}]}`

	rec, ok := parseRecommendation(content)
	require.True(t, ok)
	assert.Equal(t, id.String(), rec.ID)
	assert.Equal(t, 0.9, rec.Confidence)
	assert.Equal(t, "deadline pressure", rec.Reasoning)
	assert.Equal(t, 9.1, rec.ImportanceScore)
	require.Len(t, rec.NextSteps, 1)
	assert.Equal(t, "do it", rec.NextSteps[0].Description)
}

func TestParseRecommendationRegexTier(t *testing.T) {
	id := uuid.New()
	content := `The model thinks "task_id": "` + id.String() + `" fits best, "confidence": 0.85, "reasoning": "it is urgent" and some trailing prose`

	rec, ok := parseRecommendation(content)
	require.True(t, ok)
	assert.Equal(t, id.String(), rec.ID)
	assert.Equal(t, 0.85, rec.Confidence)
	assert.Equal(t, "it is urgent", rec.Reasoning)
}

func TestParseRecommendationGarbage(t *testing.T) {
	_, ok := parseRecommendation("no identifiers anywhere in this text")
	assert.False(t, ok)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("ü", 300) // 2 bytes per rune

	cut := truncate(s, 499)
	assert.True(t, utf8.ValidString(cut))
	assert.Len(t, cut, 498)
	assert.True(t, strings.HasPrefix(s, cut))

	assert.Equal(t, "short", truncate("short", 500))
	assert.Equal(t, strings.Repeat("a", 10), truncate(strings.Repeat("a", 12), 10))
}
