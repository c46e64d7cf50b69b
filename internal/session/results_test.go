package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caseprep/practice-service/internal/models"
)

func turnsWithRatings(ratings ...models.FeedbackRating) []models.Turn {
	turns := make([]models.Turn, len(ratings))
	for i, rating := range ratings {
		turns[i] = models.Turn{
			QuestionNumber: i + 1,
			Feedback:       newFeedback(models.TurnFeedback{Rating: rating}),
		}
	}
	return turns
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestHeuristicScore_AlwaysMarkedAsFallback(t *testing.T) {
	report := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(150), 60)
	assert.True(t, report.HeuristicFallback)
}

func TestHeuristicScore_NoTurns(t *testing.T) {
	report := HeuristicScore(nil, "", 0)

	assert.True(t, report.HeuristicFallback)
	assert.Zero(t, report.Overall)
	assert.Contains(t, report.AreasForImprovement[0], "clarifying questions")
}

func TestHeuristicScore_QuestionQualityAveragesRatings(t *testing.T) {
	report := HeuristicScore(
		turnsWithRatings(models.RatingExcellent, models.RatingNeedsImprovement),
		words(150), 60)

	// (100 + 50) / 2
	assert.Equal(t, 75, report.ProblemFormulation)
	assert.Equal(t, 75, report.Communication)
}

func TestHeuristicScore_UnknownRatingCountsAsMiddle(t *testing.T) {
	report := HeuristicScore(turnsWithRatings(models.FeedbackRating("unrated")), words(150), 60)
	assert.Equal(t, 50, report.ProblemFormulation)
}

func TestHeuristicScore_StructureSaturatesAt150Words(t *testing.T) {
	short := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(75), 60)
	assert.Equal(t, 50, short.Structure)

	long := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(400), 60)
	assert.Equal(t, 100, long.Structure)
}

func TestHeuristicScore_ConfidenceDecay(t *testing.T) {
	fast := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(150), 20*60)
	assert.Equal(t, 100, fast.Confidence)

	// 30 minutes: 5 minutes over, 2 points per minute.
	slow := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(150), 30*60)
	assert.Equal(t, 90, slow.Confidence)

	// Decay floors at 40 no matter how slow.
	glacial := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(150), 3*60*60)
	assert.Equal(t, 40, glacial.Confidence)
}

func TestHeuristicScore_OverallWeighting(t *testing.T) {
	report := HeuristicScore(turnsWithRatings(models.RatingExcellent), words(150), 60)

	// quality 100 doubled, structure 100, confidence 100.
	assert.Equal(t, 100, report.Overall)
	assert.Empty(t, report.AreasForImprovement)
}

func TestHeuristicScore_ImprovementAreas(t *testing.T) {
	report := HeuristicScore(
		turnsWithRatings(models.RatingCritical, models.RatingCritical, models.RatingSatisfactory),
		words(30), 45*60)

	assert.Len(t, report.AreasForImprovement, 3)
}

func TestHeuristicScore_PacingAreaRequiresConfidenceBelow70(t *testing.T) {
	// 40 minutes decays confidence to exactly 70, which is not flagged.
	report := HeuristicScore(
		turnsWithRatings(models.RatingCritical, models.RatingCritical, models.RatingSatisfactory),
		words(30), 40*60)

	assert.Equal(t, 70, report.Confidence)
	assert.Len(t, report.AreasForImprovement, 2)
}
