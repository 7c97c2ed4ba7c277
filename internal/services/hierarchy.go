package services

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strideapp/stride-api/internal/models"
)

// maxTreeDepth caps parent-chain walks so a corrupted chain cannot
// spin forever.
const maxTreeDepth = 100

// GoalIsDescendant reports whether candidate sits in goal's subtree by
// walking candidate's parent chain upward. Used to reject re-parenting
// that would create a cycle.
func GoalIsDescendant(db *gorm.DB, goalID, candidateID uuid.UUID) (bool, error) {
	current := candidateID
	for i := 0; i < maxTreeDepth; i++ {
		if current == goalID {
			return true, nil
		}
		var goal models.Goal
		if err := db.Select("id", "parent_id").First(&goal, "id = ?", current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, err
		}
		if goal.ParentID == nil {
			return false, nil
		}
		current = *goal.ParentID
	}
	return true, nil
}

// TargetIsDescendant is the same walk over the target tree.
func TargetIsDescendant(db *gorm.DB, targetID, candidateID uuid.UUID) (bool, error) {
	current := candidateID
	for i := 0; i < maxTreeDepth; i++ {
		if current == targetID {
			return true, nil
		}
		var target models.GoalTarget
		if err := db.Select("id", "parent_id").First(&target, "id = ?", current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, err
		}
		if target.ParentID == nil {
			return false, nil
		}
		current = *target.ParentID
	}
	return true, nil
}

// LoadGoalTree loads a goal and recursively fills its subgoal branches
// with their tasks, metrics and targets. A failing branch is logged
// and returned empty instead of failing the whole read.
func LoadGoalTree(db *gorm.DB, userID, goalID uuid.UUID) (*models.Goal, error) {
	var goal models.Goal
	if err := db.
		Preload("Tasks").
		Preload("Metrics").
		Preload("Targets").
		First(&goal, "id = ? AND user_id = ?", goalID, userID).Error; err != nil {
		return nil, err
	}
	loadSubgoalBranches(db, userID, &goal, 0)
	return &goal, nil
}

// normalizeGoalLists keeps tree responses uniform: absent child lists
// serialize as empty arrays, not null.
func normalizeGoalLists(goal *models.Goal) {
	if goal.Tasks == nil {
		goal.Tasks = []models.Task{}
	}
	if goal.Metrics == nil {
		goal.Metrics = []models.Metric{}
	}
	if goal.Targets == nil {
		goal.Targets = []models.GoalTarget{}
	}
}

func loadSubgoalBranches(db *gorm.DB, userID uuid.UUID, goal *models.Goal, depth int) {
	normalizeGoalLists(goal)
	if depth >= maxTreeDepth {
		return
	}
	var subgoals []models.Goal
	if err := db.
		Preload("Tasks").
		Preload("Metrics").
		Preload("Targets").
		Where("parent_id = ? AND user_id = ?", goal.ID, userID).
		Order("created_at ASC").
		Find(&subgoals).Error; err != nil {
		log.Printf("goal tree: loading subgoals of %s failed: %v", goal.ID, err)
		goal.Subgoals = []models.Goal{}
		return
	}
	for i := range subgoals {
		loadSubgoalBranches(db, userID, &subgoals[i], depth+1)
	}
	goal.Subgoals = subgoals
}
