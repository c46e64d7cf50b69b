package session

import (
	"strings"

	"github.com/caseprep/practice-service/internal/models"
)

var ratingPoints = map[models.FeedbackRating]int{
	models.RatingExcellent:        100,
	models.RatingSatisfactory:     75,
	models.RatingNeedsImprovement: 50,
	models.RatingCritical:         25,
}

// HeuristicScore computes a local score report from the per-turn feedback
// ratings, framework length and elapsed time. It is the documented
// fallback when the external scorer is unavailable; the report is marked
// so callers can tell the difference.
func HeuristicScore(turns []models.Turn, frameworkText string, elapsedSeconds int) *models.ScoreReport {
	report := &models.ScoreReport{HeuristicFallback: true}

	if len(turns) == 0 {
		report.AreasForImprovement = []string{"Ask clarifying questions before structuring the problem"}
		return report
	}

	total := 0
	weak := 0
	for _, turn := range turns {
		feedback := turn.Feedback.Data()
		points, ok := ratingPoints[feedback.Rating]
		if !ok {
			points = 50
		}
		total += points
		if points < 75 {
			weak++
		}
	}
	questionQuality := total / len(turns)

	// Framework depth approximated by word count, saturating at 150 words.
	words := len(strings.Fields(frameworkText))
	structure := words * 100 / 150
	if structure > 100 {
		structure = 100
	}

	// Sessions finished inside 25 minutes score full confidence; slower
	// sessions decay 2 points per extra minute.
	confidence := 100
	if minutes := elapsedSeconds / 60; minutes > 25 {
		confidence -= (minutes - 25) * 2
		if confidence < 40 {
			confidence = 40
		}
	}

	report.ProblemFormulation = questionQuality
	report.Communication = questionQuality
	report.Structure = structure
	report.Confidence = confidence
	report.Overall = (questionQuality*2 + structure + confidence) / 4

	if weak > len(turns)/2 {
		report.AreasForImprovement = append(report.AreasForImprovement,
			"Sharpen question relevance: over half the questions rated below satisfactory")
	}
	if structure < 60 {
		report.AreasForImprovement = append(report.AreasForImprovement,
			"Develop the framework further before submitting")
	}
	if confidence < 70 {
		report.AreasForImprovement = append(report.AreasForImprovement,
			"Work on pacing: aim to close the case within 25 minutes")
	}

	return report
}
