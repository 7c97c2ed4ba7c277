package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/strideapp/stride-api/internal/handlers"
	"github.com/strideapp/stride-api/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)

	goals := protected.Group("/goals")
	goals.Get("/", handlers.GetGoals)
	goals.Post("/", handlers.CreateGoal)
	goals.Get("/:id", handlers.GetGoal)
	goals.Put("/:id", handlers.UpdateGoal)
	goals.Delete("/:id", handlers.DeleteGoal)
	goals.Get("/:id/tree", handlers.GetGoalTree)
	goals.Get("/:id/subgoals", handlers.GetGoalSubgoals)
	goals.Get("/:id/tasks", handlers.GetGoalTasks)

	// Goal-scoped sub-resources
	goals.Post("/:goalId/tasks", handlers.CreateGoalTask)
	goals.Get("/:goalId/metrics", handlers.GetGoalMetrics)
	goals.Post("/:goalId/metrics", handlers.CreateGoalMetric)
	goals.Get("/:goalId/targets", handlers.GetGoalTargets)
	goals.Post("/:goalId/targets", handlers.CreateGoalTarget)
	goals.Get("/:goalId/targets/:id", handlers.GetTarget)
	goals.Put("/:goalId/targets/:id", handlers.UpdateTarget)
	goals.Delete("/:goalId/targets/:id", handlers.DeleteTarget)
	goals.Get("/:goalId/notes", handlers.GetGoalNotes)
	goals.Post("/:goalId/notes", handlers.CreateGoalNote)
	goals.Get("/:goalId/situations", handlers.GetGoalSituations)
	goals.Post("/:goalId/situations", handlers.CreateGoalSituation)
	goals.Get("/:goalId/conversations", handlers.GetGoalConversations)
	goals.Post("/:goalId/conversations", handlers.CreateGoalConversation)
	goals.Get("/:goalId/strategies", handlers.GetGoalStrategies)
	goals.Post("/:goalId/strategies", handlers.CreateGoalStrategy)
	goals.Get("/:goalId/experiences", handlers.GetGoalExperiences)
	goals.Post("/:goalId/experiences", handlers.CreateGoalExperience)

	tasks := protected.Group("/tasks")
	tasks.Get("/", handlers.GetTasks)
	tasks.Post("/", handlers.CreateTask)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Put("/:id", handlers.UpdateTask)
	tasks.Delete("/:id", handlers.DeleteTask)
	tasks.Post("/:id/complete", handlers.CompleteTask)
	tasks.Post("/:id/uncomplete", handlers.UncompleteTask)
	tasks.Patch("/:id/star", handlers.StarTask)
	tasks.Patch("/:id/schedule", handlers.ScheduleTask)
	tasks.Post("/:id/breakdown", handlers.BreakdownTask)
	tasks.Get("/:id/reminders", handlers.GetTaskReminders)

	metrics := protected.Group("/metrics")
	metrics.Get("/:id", handlers.GetMetric)
	metrics.Put("/:id", handlers.UpdateMetric)
	metrics.Delete("/:id", handlers.DeleteMetric)

	targets := protected.Group("/targets")
	targets.Get("/:id", handlers.GetTarget)
	targets.Put("/:id", handlers.UpdateTarget)
	targets.Delete("/:id", handlers.DeleteTarget)

	notes := protected.Group("/notes")
	notes.Put("/:id", handlers.UpdateNote)
	notes.Delete("/:id", handlers.DeleteNote)

	reminders := protected.Group("/reminders")
	reminders.Get("/", handlers.GetReminders)
	reminders.Post("/", handlers.CreateReminder)
	reminders.Get("/pending", handlers.GetPendingReminders)
	reminders.Put("/:id", handlers.UpdateReminder)
	reminders.Post("/:id/dismiss", handlers.DismissReminder)
	reminders.Delete("/:id", handlers.DeleteReminder)

	situations := protected.Group("/situations")
	situations.Get("/:id", handlers.GetSituation)
	situations.Put("/:id", handlers.UpdateSituation)
	situations.Delete("/:id", handlers.DeleteSituation)
	situations.Get("/:id/phases", handlers.GetSituationPhases)
	situations.Post("/:id/phases", handlers.CreateSituationPhase)

	phases := protected.Group("/phases")
	phases.Put("/:id", handlers.UpdatePhase)
	phases.Delete("/:id", handlers.DeletePhase)

	conversations := protected.Group("/conversations")
	conversations.Get("/:id", handlers.GetConversation)
	conversations.Post("/:id/messages", handlers.CreateConversationMessage)
	conversations.Delete("/:id", handlers.DeleteConversation)

	strategies := protected.Group("/strategies")
	strategies.Put("/:id", handlers.UpdateStrategy)
	strategies.Delete("/:id", handlers.DeleteStrategy)

	experiences := protected.Group("/experiences")
	experiences.Delete("/:id", handlers.DeleteExperience)

	ai := protected.Group("/ai-recommender")
	ai.Get("/recommend-task", handlers.RecommendTask)
	ai.Post("/recommend-goal", handlers.RecommendGoal)
	ai.Post("/chat-with-goals", handlers.ChatWithGoals)
}
