package scoring

import (
	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// Fixed scoring weights. Independent and additive; the sum is clamped.
const (
	timestampPoints     = 25
	locationPoints      = 25
	contextPoints       = 20
	lowManipPoints      = 20
	moderateManipPoints = 10
	consistencyPoints   = 10

	lowManipBelow      = 30
	moderateManipBelow = 50

	maxScore = 100
)

// manipulationIssue is appended to the issue list whenever the authenticity
// analyzer trips its detection threshold.
const manipulationIssue = "Image appears to be manipulated or AI-generated"

// Inputs carries every per-signal outcome into aggregation.
type Inputs struct {
	TaskType models.TaskType

	TimestampValid  bool
	TimestampIssues []string
	LocationValid   bool
	LocationIssues  []string

	Context      models.ContextFindings
	Authenticity models.AuthenticityFindings
}

// Outcome is the aggregate decision for one photo.
type Outcome struct {
	Score           int
	IsValid         bool
	Issues          []string
	Recommendations []string
}

// Aggregator combines the independent signals into the final 0-100 score,
// validity decision, issue list, and recommendations.
type Aggregator struct {
	cfg config.VerificationConfig
}

func NewAggregator(cfg config.VerificationConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate applies the fixed scoring contract.
//
// Context validity contributes to the score but is intentionally absent from
// the gating condition: a submission failing only scene checks can still be
// accepted when the remaining signals carry it past the threshold. Flagged
// for product sign-off before changing.
func (a *Aggregator) Aggregate(in Inputs) Outcome {
	score := 0
	if in.TimestampValid {
		score += timestampPoints
	}
	if in.LocationValid {
		score += locationPoints
	}
	if in.Context.Valid {
		score += contextPoints
	}

	switch {
	case in.Authenticity.ManipulationScore < lowManipBelow:
		score += lowManipPoints
	case in.Authenticity.ManipulationScore < moderateManipBelow:
		score += moderateManipPoints
	}

	if in.Authenticity.MetadataConsistent {
		score += consistencyPoints
	}

	if score > maxScore {
		score = maxScore
	}

	issues := make([]string, 0, len(in.TimestampIssues)+len(in.LocationIssues)+len(in.Context.Issues)+len(in.Context.Notes)+1)
	issues = append(issues, in.TimestampIssues...)
	issues = append(issues, in.LocationIssues...)
	issues = append(issues, in.Context.Issues...)
	issues = append(issues, in.Context.Notes...)
	if in.Authenticity.ManipulationDetected {
		issues = append(issues, manipulationIssue)
	}

	return Outcome{
		Score:           score,
		IsValid:         score >= a.cfg.MinAcceptScore && in.TimestampValid && in.LocationValid,
		Issues:          issues,
		Recommendations: recommend(issues, len(in.Context.Issues) > 0, in.TaskType),
	}
}
