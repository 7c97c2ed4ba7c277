package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/strideapp/stride-api/internal/models"
)

// NextStep is a concrete suggested action attached to a goal
// recommendation.
type NextStep struct {
	Description string `json:"description"`
	Type        string `json:"type"` // task, target, metric or strategy
}

// TaskRecommendation is the recommended task plus the recommender's
// confidence and justification.
type TaskRecommendation struct {
	models.Task
	AIConfidence float64 `json:"ai_confidence"`
	Reasoning    string  `json:"reasoning"`
}

// GoalRecommendation is the recommended goal plus scoring detail and
// suggested next actions.
type GoalRecommendation struct {
	models.Goal
	AIConfidence    float64    `json:"ai_confidence"`
	Reasoning       string     `json:"reasoning"`
	ImportanceScore float64    `json:"importance_score"`
	UrgencyScore    float64    `json:"urgency_score"`
	NextSteps       []NextStep `json:"next_steps"`
}

func priorityRank(p string) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityLow:
		return 2
	default:
		return 1
	}
}

// wholeDays truncates a duration to whole days.
func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}

// FallbackTaskRecommendation picks the next task deterministically:
// priority first (high before medium before low), then earliest due
// date, tasks without a due date last. It cannot fail given at least
// one candidate.
func FallbackTaskRecommendation(tasks []models.Task, now time.Time) (*TaskRecommendation, error) {
	if len(tasks) == 0 {
		return nil, ErrNoCandidates
	}

	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := priorityRank(sorted[i].Priority), priorityRank(sorted[j].Priority)
		if ri != rj {
			return ri < rj
		}
		di, dj := sorted[i].DueDate, sorted[j].DueDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false // no due date sorts last
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	return &TaskRecommendation{
		Task:         sorted[0],
		AIConfidence: 0.7,
		Reasoning:    "Recommended based on task priority and due date",
	}, nil
}

// goalScore carries the fallback scoring detail for one goal.
type goalScore struct {
	goal                 models.Goal
	score                float64
	importance           float64
	urgency              float64
	closestDeadlineDays  *int
	approachingDeadlines int
	daysSinceUpdate      int
	incompleteTasks      int
}

func metricProgress(m models.Metric) (float64, bool) {
	if m.TargetValue == nil || *m.TargetValue <= 0 {
		return 0, false
	}
	return m.CurrentValue / *m.TargetValue * 100, true
}

// scoreGoal computes the weighted importance/urgency breakdown for one
// goal at a given instant.
func scoreGoal(g models.Goal, now time.Time) goalScore {
	sc := goalScore{goal: g}

	// Importance from priority
	switch g.Priority {
	case models.PriorityHigh:
		sc.importance = 8.0
	case models.PriorityLow:
		sc.importance = 3.0
	default:
		sc.importance = 5.0
	}

	// Urgency from target deadlines
	sc.urgency = 5.0
	for _, target := range g.Targets {
		if target.Deadline == nil {
			continue
		}
		days := wholeDays(target.Deadline.Sub(now))
		if sc.closestDeadlineDays == nil || days < *sc.closestDeadlineDays {
			d := days
			sc.closestDeadlineDays = &d
		}
		if days <= 7 {
			sc.approachingDeadlines++
		}
		if days <= 3 {
			sc.urgency += 2.0
		} else if days <= 7 {
			sc.urgency += 1.0
		}
	}

	// Importance from metric progress and ambition
	for _, m := range g.Metrics {
		progress, ok := metricProgress(m)
		if !ok {
			continue
		}
		if progress < 25 {
			sc.importance += 0.5
		}
		if *m.TargetValue > 100 {
			sc.importance += 0.5
		}
	}

	// Importance from pending workload
	for _, t := range g.Tasks {
		if !t.Completed {
			sc.incompleteTasks++
		}
	}
	if sc.incompleteTasks > 5 {
		sc.importance += 1.0
	}

	// Urgency from inactivity
	sc.daysSinceUpdate = wholeDays(now.Sub(g.UpdatedAt))
	if sc.daysSinceUpdate > 14 {
		sc.urgency += 1.5
	} else if sc.daysSinceUpdate > 7 {
		sc.urgency += 0.8
	}

	sc.score = sc.importance*0.6 + sc.urgency*0.4
	return sc
}

// buildGoalReasoning concatenates the applicable scenario clauses in
// fixed precedence order.
func buildGoalReasoning(sc goalScore) string {
	var parts []string

	if sc.daysSinceUpdate > 7 && (sc.goal.Priority == models.PriorityHigh || sc.goal.Priority == models.PriorityMedium) {
		parts = append(parts, fmt.Sprintf("this %s priority goal hasn't been updated in %d days", sc.goal.Priority, sc.daysSinceUpdate))
	}

	if sc.approachingDeadlines > 0 {
		word := "deadline"
		if sc.approachingDeadlines > 1 {
			word = "deadlines"
		}
		parts = append(parts, fmt.Sprintf("it has %d approaching %s", sc.approachingDeadlines, word))
		if sc.closestDeadlineDays != nil && *sc.closestDeadlineDays <= 3 {
			parts = append(parts, fmt.Sprintf("with the closest deadline only %d days away", *sc.closestDeadlineDays))
		}
	}

	if sc.incompleteTasks > 5 {
		parts = append(parts, fmt.Sprintf("it has %d incomplete tasks that need attention", sc.incompleteTasks))
	}

	for _, m := range sc.goal.Metrics {
		if progress, ok := metricProgress(m); ok && progress > 0 {
			parts = append(parts, "you've made progress on metrics that should be maintained")
			break
		}
	}

	if len(sc.goal.Targets) == 0 {
		parts = append(parts, "it would benefit from defining specific targets")
	}

	if sc.goal.Priority == models.PriorityHigh {
		parts = append(parts, "it's marked as high priority")
	}

	if len(parts) == 0 {
		return "Based on priority, targets, and deadlines."
	}

	reasoning := "This goal is recommended because " + parts[0]
	for i, part := range parts[1:] {
		if i == len(parts)-2 {
			reasoning += ", and " + part
		} else {
			reasoning += ", " + part
		}
	}
	return reasoning + "."
}

// buildNextSteps emits at most one suggestion per category, in fixed
// priority order.
func buildNextSteps(g models.Goal, now time.Time) []NextStep {
	var steps []NextStep

	// Nearest approaching-deadline target
	var approaching []models.GoalTarget
	for _, target := range g.Targets {
		if target.Deadline != nil && wholeDays(target.Deadline.Sub(now)) <= 7 {
			approaching = append(approaching, target)
		}
	}
	if len(approaching) > 0 {
		sort.SliceStable(approaching, func(i, j int) bool {
			return approaching[i].Deadline.Before(*approaching[j].Deadline)
		})
		steps = append(steps, NextStep{
			Description: "Focus on target: " + approaching[0].Title,
			Type:        "target",
		})
	}

	// Highest-priority soonest-due incomplete task
	var incomplete []models.Task
	for _, t := range g.Tasks {
		if !t.Completed {
			incomplete = append(incomplete, t)
		}
	}
	if len(incomplete) > 0 {
		farFuture := now.AddDate(1, 0, 0)
		sort.SliceStable(incomplete, func(i, j int) bool {
			ri, rj := priorityRank(incomplete[i].Priority), priorityRank(incomplete[j].Priority)
			if ri != rj {
				return ri < rj
			}
			di, dj := farFuture, farFuture
			if incomplete[i].DueDate != nil {
				di = *incomplete[i].DueDate
			}
			if incomplete[j].DueDate != nil {
				dj = *incomplete[j].DueDate
			}
			return di.Before(dj)
		})
		steps = append(steps, NextStep{
			Description: "Complete task: " + incomplete[0].Title,
			Type:        "task",
		})
	}

	// First metric not yet at target
	for _, m := range g.Metrics {
		if m.TargetValue != nil && m.CurrentValue < *m.TargetValue {
			steps = append(steps, NextStep{
				Description: "Improve metric: " + m.Name,
				Type:        "metric",
			})
			break
		}
	}

	if len(g.Targets) == 0 {
		steps = append(steps, NextStep{
			Description: "Create specific targets for this goal",
			Type:        "strategy",
		})
	} else if len(steps) == 0 {
		steps = append(steps, NextStep{
			Description: "Create a strategy for this goal",
			Type:        "strategy",
		})
	}

	return steps
}

// FallbackGoalRecommendation scores every goal deterministically and
// recommends the highest, ties broken by input order.
func FallbackGoalRecommendation(goals []models.Goal, now time.Time) (*GoalRecommendation, error) {
	if len(goals) == 0 {
		return nil, ErrNoCandidates
	}

	scores := make([]goalScore, len(goals))
	for i, g := range goals {
		scores[i] = scoreGoal(g, now)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	top := scores[0]
	return &GoalRecommendation{
		Goal:            top.goal,
		AIConfidence:    0.7,
		Reasoning:       buildGoalReasoning(top),
		ImportanceScore: top.importance,
		UrgencyScore:    top.urgency,
		NextSteps:       buildNextSteps(top.goal, now),
	}, nil
}

// --- LLM path -----------------------------------------------------------

type taskPromptData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
}

func buildTaskPromptData(tasks []models.Task) []taskPromptData {
	data := make([]taskPromptData, len(tasks))
	for i, t := range tasks {
		d := taskPromptData{
			ID:        t.ID.String(),
			Title:     t.Title,
			Priority:  t.Priority,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		}
		if t.Description != nil {
			d.Description = *t.Description
		}
		if t.DueDate != nil {
			due := t.DueDate.Format(time.RFC3339)
			d.DueDate = &due
		}
		data[i] = d
	}
	return data
}

var (
	idFieldRe     = regexp.MustCompile(`"(?:task_id|goal_id)"\s*:\s*"?([0-9a-fA-F-]+)"?`)
	confidenceRe  = regexp.MustCompile(`"confidence"\s*:\s*([0-9.]+)`)
	reasoningRe   = regexp.MustCompile(`"reasoning"\s*:\s*"([^"]+)"`)
	numberedLine  = regexp.MustCompile(`(?m)^\s*\d+\.\s+(.+)$`)
	mentionedGoal = regexp.MustCompile(`goal\s+"?([0-9a-fA-F-]{8,})"?`)
)

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// flexibleID accepts models that quote ids and models that don't.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexibleID(n.String())
	}
	return nil
}

// extractedRecommendation holds the fields pulled out of an LLM reply,
// whichever parse tier produced them.
type extractedRecommendation struct {
	ID              string
	Confidence      float64
	Reasoning       string
	ImportanceScore float64
	UrgencyScore    float64
	NextSteps       []NextStep
}

// parseRecommendation applies the structured-then-fuzzy extraction:
// strict JSON first, regex field extraction second. A false return
// sends the caller to the deterministic fallback.
func parseRecommendation(content string) (extractedRecommendation, bool) {
	rec := extractedRecommendation{
		Confidence:      0.8,
		ImportanceScore: 8.0,
		UrgencyScore:    7.0,
	}

	var structured struct {
		TaskID          flexibleID `json:"task_id"`
		GoalID          flexibleID `json:"goal_id"`
		Confidence      float64    `json:"confidence"`
		Reasoning       string     `json:"reasoning"`
		ImportanceScore float64    `json:"importance_score"`
		UrgencyScore    float64    `json:"urgency_score"`
		NextSteps       []NextStep `json:"next_steps"`
	}
	if err := json.Unmarshal([]byte(content), &structured); err == nil {
		rec.ID = string(structured.TaskID)
		if rec.ID == "" {
			rec.ID = string(structured.GoalID)
		}
		if rec.ID != "" {
			if structured.Confidence > 0 {
				rec.Confidence = clampConfidence(structured.Confidence)
			}
			if structured.Reasoning != "" {
				rec.Reasoning = structured.Reasoning
			}
			if structured.ImportanceScore > 0 {
				rec.ImportanceScore = structured.ImportanceScore
			}
			if structured.UrgencyScore > 0 {
				rec.UrgencyScore = structured.UrgencyScore
			}
			rec.NextSteps = structured.NextSteps
			return rec, true
		}
	}

	// Best-effort regex extraction from free text
	m := idFieldRe.FindStringSubmatch(content)
	if m == nil {
		m = mentionedGoal.FindStringSubmatch(strings.ToLower(content))
	}
	if m == nil {
		return rec, false
	}
	rec.ID = m[1]
	if cm := confidenceRe.FindStringSubmatch(content); cm != nil {
		if v, err := strconv.ParseFloat(cm[1], 64); err == nil {
			rec.Confidence = clampConfidence(v)
		}
	}
	if rm := reasoningRe.FindStringSubmatch(content); rm != nil {
		rec.Reasoning = rm[1]
	} else {
		rec.Reasoning = truncate(content, 500)
	}
	return rec, true
}

// truncate caps s at n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// RecommendTask returns exactly one recommended task. The provider
// chain is tried first; any failure at any tier degrades to the
// deterministic fallback.
func (s *AIService) RecommendTask(ctx context.Context, tasks []models.Task) (*TaskRecommendation, error) {
	if len(tasks) == 0 {
		return nil, ErrNoCandidates
	}
	if !s.Enabled() {
		return FallbackTaskRecommendation(tasks, time.Now())
	}

	payload, err := json.MarshalIndent(buildTaskPromptData(tasks), "", "  ")
	if err != nil {
		return FallbackTaskRecommendation(tasks, time.Now())
	}

	prompt := fmt.Sprintf(`You are an AI assistant for a productivity app. Analyze the following tasks and recommend which one the user should do next.

Tasks:
%s

Provide your recommendation in the following JSON format:
{
  "task_id": "id of the recommended task",
  "confidence": 0.0 to 1.0,
  "reasoning": "brief explanation of why this task is recommended"
}
`, payload)

	content, err := s.chat(ctx, []models.ChatMessage{
		{Role: "system", Content: "You are a helpful AI assistant for a productivity app."},
		{Role: "user", Content: prompt},
	}, ChatOptions{Temperature: 0.3, MaxTokens: 800, JSONObject: true})
	if err != nil {
		log.Printf("AI: task recommendation falling back: %v", err)
		return FallbackTaskRecommendation(tasks, time.Now())
	}

	extracted, ok := parseRecommendation(content)
	if !ok {
		log.Printf("AI: could not extract task recommendation, falling back")
		return FallbackTaskRecommendation(tasks, time.Now())
	}

	recommended := tasks[0]
	for _, t := range tasks {
		if strings.EqualFold(t.ID.String(), extracted.ID) {
			recommended = t
			break
		}
	}

	reasoning := extracted.Reasoning
	if reasoning == "" {
		reasoning = "Based on priority and due date"
	}
	return &TaskRecommendation{
		Task:         recommended,
		AIConfidence: extracted.Confidence,
		Reasoning:    reasoning,
	}, nil
}

type goalPromptTarget struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Deadline          *string `json:"deadline"`
	DaysUntilDeadline *int    `json:"days_until_deadline"`
	Status            string  `json:"status"`
}

type goalPromptMetric struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Unit               string   `json:"unit"`
	TargetValue        *float64 `json:"target_value"`
	CurrentValue       float64  `json:"current_value"`
	ProgressPercentage *float64 `json:"progress_percentage"`
}

type goalPromptTask struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Priority string  `json:"priority"`
	DueDate  *string `json:"due_date"`
	Starred  bool    `json:"is_starred"`
}

type goalPromptData struct {
	ID                   string             `json:"id"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Priority             string             `json:"priority"`
	DaysSinceUpdate      int                `json:"days_since_update"`
	HasTargets           bool               `json:"has_targets"`
	ApproachingDeadlines int                `json:"approaching_deadlines"`
	Targets              []goalPromptTarget `json:"targets"`
	Metrics              []goalPromptMetric `json:"metrics"`
	TotalTasks           int                `json:"total_tasks"`
	CompletedTasks       int                `json:"completed_tasks"`
	IncompleteTasks      []goalPromptTask   `json:"incomplete_tasks"`
	HasSubgoals          bool               `json:"has_subgoals"`
}

func buildGoalPromptData(goals []models.Goal, now time.Time) []goalPromptData {
	data := make([]goalPromptData, len(goals))
	for i, g := range goals {
		d := goalPromptData{
			ID:              g.ID.String(),
			Title:           g.Title,
			Priority:        g.Priority,
			DaysSinceUpdate: wholeDays(now.Sub(g.UpdatedAt)),
			HasTargets:      len(g.Targets) > 0,
			HasSubgoals:     len(g.Subgoals) > 0,
			TotalTasks:      len(g.Tasks),
			Targets:         []goalPromptTarget{},
			Metrics:         []goalPromptMetric{},
			IncompleteTasks: []goalPromptTask{},
		}
		if g.Description != nil {
			d.Description = *g.Description
		}

		for _, target := range g.Targets {
			pt := goalPromptTarget{
				ID:     target.ID.String(),
				Title:  target.Title,
				Status: target.Status,
			}
			if target.Description != nil {
				pt.Description = *target.Description
			}
			if target.Deadline != nil {
				dl := target.Deadline.Format(time.RFC3339)
				pt.Deadline = &dl
				days := wholeDays(target.Deadline.Sub(now))
				pt.DaysUntilDeadline = &days
				if days <= 7 {
					d.ApproachingDeadlines++
				}
			}
			d.Targets = append(d.Targets, pt)
		}

		for _, m := range g.Metrics {
			pm := goalPromptMetric{
				ID:           m.ID.String(),
				Name:         m.Name,
				Type:         m.Type,
				Unit:         m.Unit,
				TargetValue:  m.TargetValue,
				CurrentValue: m.CurrentValue,
			}
			if progress, ok := metricProgress(m); ok {
				pm.ProgressPercentage = &progress
			}
			d.Metrics = append(d.Metrics, pm)
		}

		for _, t := range g.Tasks {
			if t.Completed {
				d.CompletedTasks++
				continue
			}
			pt := goalPromptTask{
				ID:       t.ID.String(),
				Title:    t.Title,
				Priority: t.Priority,
				Starred:  t.IsStarred,
			}
			if t.DueDate != nil {
				due := t.DueDate.Format(time.RFC3339)
				pt.DueDate = &due
			}
			d.IncompleteTasks = append(d.IncompleteTasks, pt)
		}

		data[i] = d
	}
	return data
}

// RecommendGoal returns exactly one recommended goal with reasoning,
// scores and next steps. Degrades to the deterministic fallback.
func (s *AIService) RecommendGoal(ctx context.Context, goals []models.Goal) (*GoalRecommendation, error) {
	if len(goals) == 0 {
		return nil, ErrNoCandidates
	}
	now := time.Now()
	if !s.Enabled() {
		return FallbackGoalRecommendation(goals, now)
	}

	payload, err := json.MarshalIndent(buildGoalPromptData(goals, now), "", "  ")
	if err != nil {
		return FallbackGoalRecommendation(goals, now)
	}

	prompt := fmt.Sprintf(`You are an AI assistant for a goal management app. Analyze the following goals and recommend which one the user should focus on next, providing detailed reasoning and specific next steps.

Goals:
%s

Current date: %s

Consider goal inactivity, approaching deadlines, workload, progress on metrics, stalled progress, and goals missing specific targets or metrics.

Provide your recommendation in the following JSON format:
{
  "goal_id": "id of the recommended goal",
  "confidence": 0.0 to 1.0,
  "reasoning": "detailed explanation of why this goal is recommended",
  "importance_score": 0.0 to 10.0,
  "urgency_score": 0.0 to 10.0,
  "next_steps": [
    {
      "description": "specific action the user should take next",
      "type": "task/target/metric/strategy"
    }
  ]
}
`, payload, now.Format(time.RFC3339))

	content, err := s.chat(ctx, []models.ChatMessage{
		{Role: "system", Content: "You are a helpful AI assistant for a goal management app."},
		{Role: "user", Content: prompt},
	}, ChatOptions{Temperature: 0.3, MaxTokens: 1000, JSONObject: true})
	if err != nil {
		log.Printf("AI: goal recommendation falling back: %v", err)
		return FallbackGoalRecommendation(goals, now)
	}

	extracted, ok := parseRecommendation(content)
	if !ok {
		log.Printf("AI: could not extract goal recommendation, falling back")
		return FallbackGoalRecommendation(goals, now)
	}

	recommended := goals[0]
	for _, g := range goals {
		if strings.EqualFold(g.ID.String(), extracted.ID) {
			recommended = g
			break
		}
	}

	reasoning := extracted.Reasoning
	if reasoning == "" {
		reasoning = "Based on priority and deadlines"
	}
	steps := extracted.NextSteps
	if len(steps) == 0 {
		steps = []NextStep{{Description: "Review goal details and create a plan", Type: "strategy"}}
	}
	return &GoalRecommendation{
		Goal:            recommended,
		AIConfidence:    extracted.Confidence,
		Reasoning:       reasoning,
		ImportanceScore: extracted.ImportanceScore,
		UrgencyScore:    extracted.UrgencyScore,
		NextSteps:       steps,
	}, nil
}

// TopGoalRecommendations ranks all goals with the deterministic scorer
// and returns the top N. To bound API cost only the single top-ranked
// goal is upgraded to a full LLM recommendation; the rest keep their
// fallback result with a score-nudged confidence.
func (s *AIService) TopGoalRecommendations(ctx context.Context, goals []models.Goal, topN int) ([]GoalRecommendation, error) {
	if len(goals) == 0 {
		return nil, ErrNoCandidates
	}
	now := time.Now()

	if len(goals) <= topN {
		recs := make([]GoalRecommendation, 0, len(goals))
		for _, g := range goals {
			rec, err := s.RecommendGoal(ctx, []models.Goal{g})
			if err != nil {
				fallback, ferr := FallbackGoalRecommendation([]models.Goal{g}, now)
				if ferr != nil {
					return nil, ferr
				}
				rec = fallback
			}
			recs = append(recs, *rec)
		}
		return recs, nil
	}

	scores := make([]goalScore, len(goals))
	for i, g := range goals {
		scores[i] = scoreGoal(g, now)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	scores = scores[:topN]

	recs := make([]GoalRecommendation, len(scores))
	for i, sc := range scores {
		recs[i] = GoalRecommendation{
			Goal:            sc.goal,
			AIConfidence:    clampConfidence(0.7 + sc.score/20),
			Reasoning:       buildGoalReasoning(sc),
			ImportanceScore: sc.importance,
			UrgencyScore:    sc.urgency,
			NextSteps:       buildNextSteps(sc.goal, now),
		}
	}

	if s.Enabled() {
		detailed, err := s.RecommendGoal(ctx, []models.Goal{scores[0].goal})
		if err == nil {
			recs[0] = *detailed
		} else {
			log.Printf("AI: detailed recommendation for top goal failed, keeping fallback: %v", err)
		}
	}

	return recs, nil
}
