package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/strideapp/stride-api/internal/config"
	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/models"
	"github.com/strideapp/stride-api/internal/routes"
	"github.com/strideapp/stride-api/internal/services"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	database.DB = db
	require.NoError(t, database.Migrate())

	// no provider keys: recommender runs in deterministic mode
	services.InitAI(&config.Config{})

	app := fiber.New()
	routes.Setup(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    email,
		"password": "password123",
		"fullName": "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth models.AuthResponse
	decode(t, resp, &auth)
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

func createGoal(t *testing.T, app *fiber.App, token string, body fiber.Map) models.Goal {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/goals/", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var goal models.Goal
	decode(t, resp, &goal)
	return goal
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	token := registerUser(t, app, "alice@example.com")

	// duplicate email
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// wrong password
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// correct login
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.User
	resp = doJSON(t, app, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &me)
	assert.Equal(t, "alice@example.com", me.Email)

	// missing token
	resp = doJSON(t, app, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGoalCycleRejected(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "bob@example.com")

	a := createGoal(t, app, token, fiber.Map{"title": "A"})
	b := createGoal(t, app, token, fiber.Map{"title": "B", "parentId": a.ID})
	c := createGoal(t, app, token, fiber.Map{"title": "C", "parentId": b.ID})

	// A under C would close the loop A -> B -> C -> A
	resp := doJSON(t, app, http.MethodPut, "/api/goals/"+a.ID.String(), token, fiber.Map{
		"parentId": c.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// self-parent
	resp = doJSON(t, app, http.MethodPut, "/api/goals/"+a.ID.String(), token, fiber.Map{
		"parentId": a.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the rejected updates must not have written anything
	var stored models.Goal
	require.NoError(t, database.DB.First(&stored, "id = ?", a.ID).Error)
	assert.Nil(t, stored.ParentID)

	// a legal move still works
	resp = doJSON(t, app, http.MethodPut, "/api/goals/"+c.ID.String(), token, fiber.Map{
		"parentId": a.ID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTaskCompletionLifecycle(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "carol@example.com")

	goal := createGoal(t, app, token, fiber.Map{"title": "Read books"})

	resp := doJSON(t, app, http.MethodPost, "/api/goals/"+goal.ID.String()+"/metrics", token, fiber.Map{
		"name": "pages", "unit": "pages", "targetValue": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var metric models.Metric
	decode(t, resp, &metric)

	newTask := func(title string) models.Task {
		resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{
			"title": title, "goalId": goal.ID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var task models.Task
		decode(t, resp, &task)
		return task
	}
	t1 := newTask("chapter one")
	t2 := newTask("chapter two")

	complete := func(task models.Task, value float64) models.Task {
		resp := doJSON(t, app, http.MethodPost, "/api/tasks/"+task.ID.String()+"/complete", token, fiber.Map{
			"metricId": metric.ID, "contributionValue": value,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out models.Task
		decode(t, resp, &out)
		return out
	}

	done1 := complete(t1, 20)
	require.NotNil(t, done1.CompletionOrder)
	assert.Equal(t, 1, *done1.CompletionOrder)
	require.NotNil(t, done1.CompletionTime)

	done2 := complete(t2, 30)
	require.NotNil(t, done2.CompletionOrder)
	assert.Equal(t, 2, *done2.CompletionOrder)

	var m models.Metric
	require.NoError(t, database.DB.First(&m, "id = ?", metric.ID).Error)
	assert.Equal(t, 50.0, m.CurrentValue)
	assert.Len(t, m.ContributionsList, 2)

	// completing an already-completed task must not double-count
	again := complete(t1, 20)
	require.NotNil(t, again.CompletionOrder)
	assert.Equal(t, 1, *again.CompletionOrder)
	require.NoError(t, database.DB.First(&m, "id = ?", metric.ID).Error)
	assert.Equal(t, 50.0, m.CurrentValue)

	// un-complete rolls the ledger back and clears the stamps
	resp = doJSON(t, app, http.MethodPost, "/api/tasks/"+t1.ID.String()+"/uncomplete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reopened models.Task
	decode(t, resp, &reopened)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletionOrder)
	assert.Nil(t, reopened.CompletionTime)

	require.NoError(t, database.DB.First(&m, "id = ?", metric.ID).Error)
	assert.Equal(t, 30.0, m.CurrentValue)
	assert.Len(t, m.ContributionsList, 1)

	// re-completing hands out a fresh, higher order
	redone := complete(t1, 20)
	require.NotNil(t, redone.CompletionOrder)
	assert.Equal(t, 3, *redone.CompletionOrder)
	require.NoError(t, database.DB.First(&m, "id = ?", metric.ID).Error)
	assert.Equal(t, 50.0, m.CurrentValue)
}

func TestMetricCreationSweepsCompletedTasks(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "dave@example.com")

	goal := createGoal(t, app, token, fiber.Map{"title": "Run more"})

	// completed before any metric existed, but with declared values
	for _, v := range []float64{5, 7} {
		resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{
			"title": "run", "goalId": goal.ID, "contributionValue": v,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var task models.Task
		decode(t, resp, &task)

		resp = doJSON(t, app, http.MethodPost, "/api/tasks/"+task.ID.String()+"/complete", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// a completed task without a contribution value is left alone
	resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{
		"title": "stretch", "goalId": goal.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var plain models.Task
	decode(t, resp, &plain)
	resp = doJSON(t, app, http.MethodPost, "/api/tasks/"+plain.ID.String()+"/complete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/goals/"+goal.ID.String()+"/metrics", token, fiber.Map{
		"name": "kilometers", "unit": "km", "targetValue": 50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var metric models.Metric
	decode(t, resp, &metric)

	assert.Equal(t, 12.0, metric.CurrentValue)
	assert.Len(t, metric.ContributionsList, 2)

	var stored models.Metric
	require.NoError(t, database.DB.First(&stored, "id = ?", metric.ID).Error)
	n, err := services.ReassignTasksToMetric(database.DB, &stored)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 12.0, stored.CurrentValue)
}

func TestUserScoping(t *testing.T) {
	app := setupApp(t)
	aliceToken := registerUser(t, app, "alice@scope.test")
	eveToken := registerUser(t, app, "eve@scope.test")

	goal := createGoal(t, app, aliceToken, fiber.Map{"title": "private"})

	resp := doJSON(t, app, http.MethodGet, "/api/goals/"+goal.ID.String(), eveToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/goals/"+goal.ID.String(), eveToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/goals/"+goal.ID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecommendEndpointsFallback(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "frank@example.com")

	// nothing to recommend yet
	resp := doJSON(t, app, http.MethodGet, "/api/ai-recommender/recommend-task", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	goal := createGoal(t, app, token, fiber.Map{"title": "Learn Go", "priority": "high"})
	resp = doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{
		"title": "read tour", "goalId": goal.ID, "priority": "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/ai-recommender/recommend-task", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var taskRec services.TaskRecommendation
	decode(t, resp, &taskRec)
	assert.Equal(t, "read tour", taskRec.Title)
	assert.Equal(t, 0.7, taskRec.AIConfidence)

	resp = doJSON(t, app, http.MethodPost, "/api/ai-recommender/recommend-goal", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var goalRecs []services.GoalRecommendation
	decode(t, resp, &goalRecs)
	require.Len(t, goalRecs, 1)
	assert.Equal(t, "Learn Go", goalRecs[0].Title)
	assert.NotEmpty(t, goalRecs[0].Reasoning)
	assert.NotEmpty(t, goalRecs[0].NextSteps)

	// chat has no deterministic fallback
	resp = doJSON(t, app, http.MethodPost, "/api/ai-recommender/chat-with-goals", token, fiber.Map{
		"message": "what should I do next?",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// breakdown degrades, it does not error
	var created models.Task
	resp = doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{"title": "big task"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &created)
	resp = doJSON(t, app, http.MethodPost, "/api/tasks/"+created.ID.String()+"/breakdown", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var breakdown services.BreakdownResult
	decode(t, resp, &breakdown)
	assert.False(t, breakdown.Success)
}

func TestTargetHierarchy(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "grace@example.com")

	goal := createGoal(t, app, token, fiber.Map{"title": "Write novel"})

	newTarget := func(body fiber.Map) models.GoalTarget {
		resp := doJSON(t, app, http.MethodPost, "/api/goals/"+goal.ID.String()+"/targets", token, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var target models.GoalTarget
		decode(t, resp, &target)
		return target
	}

	root := newTarget(fiber.Map{"title": "draft"})
	child := newTarget(fiber.Map{"title": "chapter 1", "parentId": root.ID})

	// moving the root under its own child is a cycle
	resp := doJSON(t, app, http.MethodPut, "/api/targets/"+root.ID.String(), token, fiber.Map{
		"parentId": child.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// listing returns roots with subtargets attached
	resp = doJSON(t, app, http.MethodGet, "/api/goals/"+goal.ID.String()+"/targets", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var targets []models.GoalTarget
	decode(t, resp, &targets)
	require.Len(t, targets, 1)
	require.Len(t, targets[0].Subtargets, 1)
	assert.Equal(t, "chapter 1", targets[0].Subtargets[0].Title)
}

func TestRemindersUpkeepTaskFlag(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "heidi@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{"title": "call dentist"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decode(t, resp, &task)

	resp = doJSON(t, app, http.MethodPost, "/api/reminders/", token, fiber.Map{
		"title":        "call now",
		"reminderTime": "2026-01-02T15:04:05Z",
		"taskId":       task.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reminder models.Reminder
	decode(t, resp, &reminder)

	var stored models.Task
	require.NoError(t, database.DB.First(&stored, "id = ?", task.ID).Error)
	assert.True(t, stored.HasReminders)

	resp = doJSON(t, app, http.MethodPost, "/api/reminders/"+reminder.ID.String()+"/dismiss", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, database.DB.First(&stored, "id = ?", task.ID).Error)
	assert.False(t, stored.HasReminders)
}

func TestCompletionOrderNeverReused(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "heidi@example.com")

	newTask := func(title string) models.Task {
		resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{"title": title})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var task models.Task
		decode(t, resp, &task)
		return task
	}
	complete := func(task models.Task) models.Task {
		resp := doJSON(t, app, http.MethodPost, "/api/tasks/"+task.ID.String()+"/complete", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out models.Task
		decode(t, resp, &out)
		return out
	}

	a := newTask("first")
	b := newTask("second")
	c := newTask("third")

	doneA := complete(a)
	require.NotNil(t, doneA.CompletionOrder)
	assert.Equal(t, 1, *doneA.CompletionOrder)

	doneB := complete(b)
	require.NotNil(t, doneB.CompletionOrder)
	assert.Equal(t, 2, *doneB.CompletionOrder)

	// reopening the highest-ordered task must not free its number
	resp := doJSON(t, app, http.MethodPost, "/api/tasks/"+b.ID.String()+"/uncomplete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doneC := complete(c)
	require.NotNil(t, doneC.CompletionOrder)
	assert.Greater(t, *doneC.CompletionOrder, *doneB.CompletionOrder)
	assert.Equal(t, 3, *doneC.CompletionOrder)
}

func TestGoalDeleteDetachesTaskMetric(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "ivan@example.com")

	goal := createGoal(t, app, token, fiber.Map{"title": "Run a marathon"})

	resp := doJSON(t, app, http.MethodPost, "/api/goals/"+goal.ID.String()+"/metrics", token, fiber.Map{
		"name": "kilometers", "unit": "km", "targetValue": 42,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var metric models.Metric
	decode(t, resp, &metric)

	resp = doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{
		"title": "long run", "goalId": goal.ID, "metricId": metric.ID, "contributionValue": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decode(t, resp, &task)

	resp = doJSON(t, app, http.MethodDelete, "/api/goals/"+goal.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the cascade kills the metric; the task survives, unlinked
	var orphan models.Task
	require.NoError(t, database.DB.First(&orphan, "id = ?", task.ID).Error)
	assert.Nil(t, orphan.GoalID)
	assert.Nil(t, orphan.MetricID)

	resp = doJSON(t, app, http.MethodPost, "/api/tasks/"+task.ID.String()+"/complete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var done models.Task
	decode(t, resp, &done)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletionOrder)
}

func TestUpdateTaskRejectsUnknownMetric(t *testing.T) {
	app := setupApp(t)
	token := registerUser(t, app, "judy@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, fiber.Map{"title": "stretch"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decode(t, resp, &task)

	resp = doJSON(t, app, http.MethodPut, "/api/tasks/"+task.ID.String(), token, fiber.Map{
		"completed": true, "metricId": uuid.New(), "contributionValue": 5,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var untouched models.Task
	require.NoError(t, database.DB.First(&untouched, "id = ?", task.ID).Error)
	assert.False(t, untouched.Completed)
	assert.Nil(t, untouched.CompletionOrder)
}
