package scoring

import (
	"fmt"
	"strings"

	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// recommendationRules map issue-text fragments to actionable advice. Rules
// fire at most once each, in table order.
var recommendationRules = []struct {
	fragment string
	advice   string
}{
	{"No timestamp found", "Enable location services and camera metadata when taking photos"},
	{"GPS coordinates", "Ensure GPS is enabled and location permissions are granted"},
	{"outside task deadline", "Take photos within the task deadline window"},
	{"older than", "Take fresh photos when completing tasks"},
	{"manipulated or AI-generated", "Use original, unedited photos from your camera"},
}

// positiveRecommendation is emitted when no rule matched any issue.
const positiveRecommendation = "Photo meets all verification requirements"

// recommend derives advice from the collected issues. hasContextIssues adds
// the task-specific framing recommendation.
func recommend(issues []string, hasContextIssues bool, taskType models.TaskType) []string {
	joined := strings.Join(issues, "\n")

	var recommendations []string
	for _, rule := range recommendationRules {
		if strings.Contains(joined, rule.fragment) {
			recommendations = append(recommendations, rule.advice)
		}
	}

	if hasContextIssues {
		recommendations = append(recommendations,
			fmt.Sprintf("Ensure photos clearly show %s completion", taskType))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, positiveRecommendation)
	}

	return recommendations
}
