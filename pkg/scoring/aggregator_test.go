package scoring

import (
	"strings"
	"testing"

	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

func cleanInputs() Inputs {
	return Inputs{
		TaskType:       models.TaskTreePlanting,
		TimestampValid: true,
		LocationValid:  true,
		Context:        models.ContextFindings{Valid: true},
		Authenticity: models.AuthenticityFindings{
			ManipulationScore:  0,
			MetadataConsistent: true,
		},
	}
}

func TestAggregate_PerfectSubmission(t *testing.T) {
	a := NewAggregator(config.DefaultVerificationConfig())
	out := a.Aggregate(cleanInputs())

	if out.Score != 100 {
		t.Errorf("expected score 100, got %d", out.Score)
	}
	if !out.IsValid {
		t.Error("expected valid result")
	}
	if len(out.Issues) != 0 {
		t.Errorf("expected no issues, got %v", out.Issues)
	}
	if len(out.Recommendations) != 1 || out.Recommendations[0] != positiveRecommendation {
		t.Errorf("expected the single positive recommendation, got %v", out.Recommendations)
	}
}

func TestAggregate_ScoreWeights(t *testing.T) {
	a := NewAggregator(config.DefaultVerificationConfig())

	tests := []struct {
		name   string
		mutate func(*Inputs)
		want   int
	}{
		{"timestamp invalid", func(in *Inputs) { in.TimestampValid = false }, 75},
		{"location invalid", func(in *Inputs) { in.LocationValid = false }, 75},
		{"context invalid", func(in *Inputs) { in.Context.Valid = false }, 80},
		{"moderate manipulation", func(in *Inputs) { in.Authenticity.ManipulationScore = 30 }, 90},
		{"high manipulation", func(in *Inputs) { in.Authenticity.ManipulationScore = 55 }, 80},
		{"inconsistent metadata", func(in *Inputs) { in.Authenticity.MetadataConsistent = false }, 90},
	}

	for _, tt := range tests {
		in := cleanInputs()
		tt.mutate(&in)
		out := a.Aggregate(in)
		if out.Score != tt.want {
			t.Errorf("%s: score = %d, want %d", tt.name, out.Score, tt.want)
		}
	}
}

func TestAggregate_ScoreAlwaysInRange(t *testing.T) {
	a := NewAggregator(config.DefaultVerificationConfig())

	// Worst case: everything fails.
	in := Inputs{
		TaskType:     models.TaskOther,
		Authenticity: models.AuthenticityFindings{ManipulationScore: 75},
	}
	out := a.Aggregate(in)
	if out.Score < 0 || out.Score > 100 {
		t.Errorf("score out of range: %d", out.Score)
	}
	if out.Score != 0 {
		t.Errorf("all-failing inputs should score 0, got %d", out.Score)
	}

	// Best case already covered; verify the clamp holds there too.
	out = a.Aggregate(cleanInputs())
	if out.Score > 100 {
		t.Errorf("score exceeds clamp: %d", out.Score)
	}
}

func TestAggregate_GatingRule(t *testing.T) {
	a := NewAggregator(config.DefaultVerificationConfig())

	// Context invalid but all other signals healthy: score 80, and the gate
	// only checks timestamp and location, so the result stays valid.
	in := cleanInputs()
	in.Context.Valid = false
	in.Context.Issues = []string{"No trees or vegetation detected in the image"}
	out := a.Aggregate(in)
	if out.Score != 80 {
		t.Fatalf("expected score 80, got %d", out.Score)
	}
	if !out.IsValid {
		t.Error("context validity must not gate the overall decision")
	}

	// Location invalid gates regardless of score.
	in = cleanInputs()
	in.LocationValid = false
	in.LocationIssues = []string{"No GPS coordinates found in photo metadata"}
	out = a.Aggregate(in)
	if out.IsValid {
		t.Error("location-invalid submissions must never be valid")
	}

	// Timestamp invalid gates too.
	in = cleanInputs()
	in.TimestampValid = false
	out = a.Aggregate(in)
	if out.IsValid {
		t.Error("timestamp-invalid submissions must never be valid")
	}

	// Score below threshold gates even with both hard signals valid.
	in = cleanInputs()
	in.Context.Valid = false
	in.Authenticity.ManipulationScore = 55
	in.Authenticity.MetadataConsistent = false
	out = a.Aggregate(in)
	if out.Score != 50 {
		t.Fatalf("expected score 50, got %d", out.Score)
	}
	if out.IsValid {
		t.Error("sub-threshold scores must not be valid")
	}
}

func TestAggregate_IssueOrdering(t *testing.T) {
	a := NewAggregator(config.DefaultVerificationConfig())

	in := cleanInputs()
	in.TimestampValid = false
	in.TimestampIssues = []string{"No timestamp found in photo metadata"}
	in.LocationValid = false
	in.LocationIssues = []string{"No GPS coordinates found in photo metadata"}
	in.Context.Valid = false
	in.Context.Issues = []string{"No trees or vegetation detected in the image"}
	in.Context.Notes = []string{"Image appears to be taken outdoors (good for tree planting)"}
	in.Authenticity.ManipulationDetected = true

	out := a.Aggregate(in)
	want := []string{
		"No timestamp found in photo metadata",
		"No GPS coordinates found in photo metadata",
		"No trees or vegetation detected in the image",
		"Image appears to be taken outdoors (good for tree planting)",
		manipulationIssue,
	}
	if len(out.Issues) != len(want) {
		t.Fatalf("expected %d issues, got %d: %v", len(want), len(out.Issues), out.Issues)
	}
	for i := range want {
		if out.Issues[i] != want[i] {
			t.Errorf("issue %d: got %q, want %q", i, out.Issues[i], want[i])
		}
	}
}

func TestRecommend_RuleTable(t *testing.T) {
	recs := recommend([]string{
		"No timestamp found in photo metadata",
		"No GPS coordinates found in photo metadata",
		manipulationIssue,
	}, false, models.TaskTreePlanting)

	joined := strings.Join(recs, "\n")
	for _, want := range []string{
		"Enable location services and camera metadata",
		"Ensure GPS is enabled",
		"Use original, unedited photos",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected recommendation containing %q, got %v", want, recs)
		}
	}
}

func TestRecommend_ContextAdviceNamesTask(t *testing.T) {
	recs := recommend([]string{"No trees or vegetation detected in the image"}, true, models.TaskTreePlanting)
	joined := strings.Join(recs, "\n")
	if !strings.Contains(joined, "tree_planting completion") {
		t.Errorf("expected task-specific advice, got %v", recs)
	}
}

func TestRecommend_PositiveFallback(t *testing.T) {
	recs := recommend(nil, false, models.TaskOther)
	if len(recs) != 1 || recs[0] != positiveRecommendation {
		t.Errorf("expected positive fallback, got %v", recs)
	}
}
