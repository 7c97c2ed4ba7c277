package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/strideapp/stride-api/internal/database"
	"github.com/strideapp/stride-api/internal/middleware"
	"github.com/strideapp/stride-api/internal/models"
)

func userSituation(situationID, userID uuid.UUID) (*models.Situation, error) {
	var situation models.Situation
	if err := database.DB.
		Joins("JOIN goals ON goals.id = situations.goal_id").
		Where("situations.id = ? AND goals.user_id = ?", situationID, userID).
		First(&situation).Error; err != nil {
		return nil, err
	}
	return &situation, nil
}

func GetGoalSituations(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}
	if _, err := userGoal(goalID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var situations []models.Situation
	if err := database.DB.
		Preload("Phases").
		Where("goal_id = ?", goalID).
		Order("created_at DESC").
		Find(&situations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch situations",
		})
	}
	return c.JSON(situations)
}

// CreateGoalSituation creates a situation and its phases in one call.
func CreateGoalSituation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid goal ID",
		})
	}
	if _, err := userGoal(goalID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Goal not found",
		})
	}

	var req models.CreateSituationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Title is required",
		})
	}
	if !models.ValidSituationType(req.SituationType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Situation type must be planned or completed",
		})
	}
	if req.Outcome != nil && !models.ValidOutcome(*req.Outcome) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Outcome must be success, partial_success or failure",
		})
	}

	situation := models.Situation{
		Title:          req.Title,
		Description:    req.Description,
		SituationType:  req.SituationType,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Outcome:        req.Outcome,
		Score:          req.Score,
		LessonsLearned: req.LessonsLearned,
		GoalID:         goalID,
	}
	for _, p := range req.Phases {
		situation.Phases = append(situation.Phases, models.Phase{
			PhaseName:          p.PhaseName,
			ApproachUsed:       p.ApproachUsed,
			EffectivenessScore: p.EffectivenessScore,
			ResponseOutcome:    p.ResponseOutcome,
			Notes:              p.Notes,
		})
	}

	if err := database.DB.Create(&situation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create situation",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(situation)
}

func GetSituation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	situationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid situation ID",
		})
	}

	situation, err := userSituation(situationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Situation not found",
		})
	}
	if err := database.DB.Preload("Phases").First(situation, "id = ?", situation.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch situation",
		})
	}
	return c.JSON(situation)
}

func UpdateSituation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	situationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid situation ID",
		})
	}

	situation, err := userSituation(situationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Situation not found",
		})
	}

	var req models.UpdateSituationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	if req.Title != nil {
		if *req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Title cannot be empty",
			})
		}
		situation.Title = *req.Title
	}
	if req.Description != nil {
		situation.Description = req.Description
	}
	if req.SituationType != nil {
		if !models.ValidSituationType(*req.SituationType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Situation type must be planned or completed",
			})
		}
		situation.SituationType = *req.SituationType
	}
	if req.StartTime != nil {
		situation.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		situation.EndTime = req.EndTime
	}
	if req.Outcome != nil {
		if !models.ValidOutcome(*req.Outcome) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Outcome must be success, partial_success or failure",
			})
		}
		situation.Outcome = req.Outcome
	}
	if req.Score != nil {
		situation.Score = req.Score
	}
	if req.LessonsLearned != nil {
		situation.LessonsLearned = req.LessonsLearned
	}

	if err := database.DB.Save(situation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update situation",
		})
	}
	return c.JSON(situation)
}

func DeleteSituation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	situationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid situation ID",
		})
	}

	situation, err := userSituation(situationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Situation not found",
		})
	}

	if err := database.DB.Delete(situation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete situation",
		})
	}
	return c.JSON(fiber.Map{"message": "Situation deleted"})
}

func GetSituationPhases(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	situationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid situation ID",
		})
	}

	situation, err := userSituation(situationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Situation not found",
		})
	}

	var phases []models.Phase
	if err := database.DB.
		Where("situation_id = ?", situation.ID).
		Order("created_at ASC").
		Find(&phases).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to fetch phases",
		})
	}
	return c.JSON(phases)
}

func CreateSituationPhase(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	situationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid situation ID",
		})
	}

	situation, err := userSituation(situationID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Situation not found",
		})
	}

	var req models.CreatePhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}
	if req.PhaseName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Phase name is required",
		})
	}

	phase := models.Phase{
		PhaseName:          req.PhaseName,
		ApproachUsed:       req.ApproachUsed,
		EffectivenessScore: req.EffectivenessScore,
		ResponseOutcome:    req.ResponseOutcome,
		Notes:              req.Notes,
		SituationID:        situation.ID,
	}
	if err := database.DB.Create(&phase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to create phase",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(phase)
}

func UpdatePhase(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	phaseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid phase ID",
		})
	}

	var phase models.Phase
	if err := database.DB.
		Joins("JOIN situations ON situations.id = phases.situation_id").
		Joins("JOIN goals ON goals.id = situations.goal_id").
		Where("phases.id = ? AND goals.user_id = ?", phaseID, userID).
		First(&phase).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Phase not found",
		})
	}

	var req models.UpdatePhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	if req.PhaseName != nil {
		if *req.PhaseName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Phase name cannot be empty",
			})
		}
		phase.PhaseName = *req.PhaseName
	}
	if req.ApproachUsed != nil {
		phase.ApproachUsed = req.ApproachUsed
	}
	if req.EffectivenessScore != nil {
		phase.EffectivenessScore = req.EffectivenessScore
	}
	if req.ResponseOutcome != nil {
		phase.ResponseOutcome = req.ResponseOutcome
	}
	if req.Notes != nil {
		phase.Notes = req.Notes
	}

	if err := database.DB.Save(&phase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to update phase",
		})
	}
	return c.JSON(phase)
}

func DeletePhase(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	phaseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid phase ID",
		})
	}

	var phase models.Phase
	if err := database.DB.
		Joins("JOIN situations ON situations.id = phases.situation_id").
		Joins("JOIN goals ON goals.id = situations.goal_id").
		Where("phases.id = ? AND goals.user_id = ?", phaseID, userID).
		First(&phase).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Phase not found",
		})
	}

	if err := database.DB.Delete(&phase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to delete phase",
		})
	}
	return c.JSON(fiber.Map{"message": "Phase deleted"})
}
