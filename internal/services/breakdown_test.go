package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strideapp/stride-api/internal/models"
)

func TestExtractSubtasksBullets(t *testing.T) {
	content := `Here is a plan:
- Research venues
- Book a room
- Send invites
Anything else?`

	subtasks := ExtractSubtasks(content)
	assert.Equal(t, []string{"Research venues", "Book a room", "Send invites"}, subtasks)
}

func TestExtractSubtasksDotBullets(t *testing.T) {
	content := "• First thing\n• Second thing"
	assert.Equal(t, []string{"First thing", "Second thing"}, ExtractSubtasks(content))
}

func TestExtractSubtasksNumberedFallback(t *testing.T) {
	content := `Steps:
1. Warm up
2. Run five kilometers
3. Stretch`

	subtasks := ExtractSubtasks(content)
	assert.Equal(t, []string{"Warm up", "Run five kilometers", "Stretch"}, subtasks)
}

func TestExtractSubtasksBulletsWinOverNumbers(t *testing.T) {
	content := "- Real step\n1. Ignored numbered line"
	assert.Equal(t, []string{"Real step"}, ExtractSubtasks(content))
}

func TestExtractSubtasksNothingActionable(t *testing.T) {
	assert.Empty(t, ExtractSubtasks("Just prose with no list at all."))
}

func TestBreakdownTaskWithoutProviders(t *testing.T) {
	svc := &AIService{}
	result := svc.BreakdownTask(context.Background(), models.Task{Title: "Plan party"}, "", nil)
	assert.False(t, result.Success)
	assert.Empty(t, result.Subtasks)
	assert.NotEmpty(t, result.Response)
}
