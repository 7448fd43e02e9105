package scene

import (
	"image"
	"image/draw"

	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// darkLevel is the grayscale intensity below which a pixel counts toward
// the pollution-indicator mask.
const darkLevel = 50

// PollutionReportClassifier looks for dark regions (smoke, spills, waste)
// covering a meaningful share of the frame.
type PollutionReportClassifier struct {
	cfg config.VerificationConfig
}

func NewPollutionReportClassifier(cfg config.VerificationConfig) *PollutionReportClassifier {
	return &PollutionReportClassifier{cfg: cfg}
}

func (c *PollutionReportClassifier) TaskType() models.TaskType {
	return models.TaskPollutionReport
}

func (c *PollutionReportClassifier) Classify(img image.Image) models.ContextFindings {
	var findings models.ContextFindings

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		findings.Issues = append(findings.Issues, "Image doesn't show sufficient pollution indicators")
		findings.Valid = false
		return findings
	}

	dark := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y < darkLevel {
				dark++
			}
		}
	}

	darkPct := float64(dark) / float64(total) * 100.0
	if darkPct < c.cfg.MinPollutionPct {
		findings.Issues = append(findings.Issues, "Image doesn't show sufficient pollution indicators")
	}

	findings.Valid = len(findings.Issues) == 0
	return findings
}

// CorruptionReportClassifier deliberately performs no automated judgment:
// corruption evidence always goes to human review downstream.
type CorruptionReportClassifier struct{}

func NewCorruptionReportClassifier() *CorruptionReportClassifier {
	return &CorruptionReportClassifier{}
}

func (c *CorruptionReportClassifier) TaskType() models.TaskType {
	return models.TaskCorruptionReport
}

func (c *CorruptionReportClassifier) Classify(_ image.Image) models.ContextFindings {
	return models.ContextFindings{Valid: true}
}
