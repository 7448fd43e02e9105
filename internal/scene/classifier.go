package scene

import (
	"image"
	"math"

	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// Classifier inspects image content for cues consistent with one task type.
type Classifier interface {
	TaskType() models.TaskType
	Classify(img image.Image) models.ContextFindings
}

// Registry dispatches classification by task type. Unknown task types get a
// permissive default so new tasks can be rolled out before a classifier
// exists for them.
type Registry struct {
	classifiers map[models.TaskType]Classifier
}

// NewRegistry creates a registry with the built-in classifiers.
func NewRegistry(cfg config.VerificationConfig) *Registry {
	r := &Registry{classifiers: make(map[models.TaskType]Classifier)}
	r.Register(NewTreePlantingClassifier(cfg))
	r.Register(NewPollutionReportClassifier(cfg))
	r.Register(NewCorruptionReportClassifier())
	return r
}

// Register adds or replaces the classifier for its task type.
func (r *Registry) Register(c Classifier) {
	r.classifiers[c.TaskType()] = c
}

// Classify runs the classifier registered for taskType. Unregistered types
// are always valid with no issues.
func (r *Registry) Classify(img image.Image, taskType models.TaskType) models.ContextFindings {
	if c, ok := r.classifiers[taskType]; ok {
		return c.Classify(img)
	}
	return models.ContextFindings{Valid: true}
}

// hueBand is an inclusive hue range in degrees with saturation and value
// floors, matching how scene cues are isolated in HSV space.
type hueBand struct {
	hueLo, hueHi float64
	minSat       float64
	minVal       float64
}

func (b hueBand) contains(h, s, v float64) bool {
	return h >= b.hueLo && h <= b.hueHi && s >= b.minSat && v >= b.minVal
}

// rgbToHSV converts normalized RGB to hue (degrees), saturation and value.
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * (((g - b) / delta) + 0)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}

// maskStats walks the image once. It reports, for each band, the percent of
// total area it matched, plus a boolean union mask of the first maskBands
// bands for shape analysis. The union percent deduplicates pixels that fall
// in more than one of those bands.
func maskStats(img image.Image, bands []hueBand, maskBands int) (percents []float64, mask []bool, maskPct float64, width, height int) {
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	total := width * height
	percents = make([]float64, len(bands))
	if total == 0 {
		return percents, nil, 0, width, height
	}

	counts := make([]int, len(bands))
	mask = make([]bool, total)
	maskCount := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rv, gv, bv, _ := img.At(x, y).RGBA()
			rf := float64(rv) / 65535.0
			gf := float64(gv) / 65535.0
			bf := float64(bv) / 65535.0
			h, s, v := rgbToHSV(rf, gf, bf)

			idx := (y-bounds.Min.Y)*width + (x - bounds.Min.X)
			for i, band := range bands {
				if band.contains(h, s, v) {
					counts[i]++
					if i < maskBands && !mask[idx] {
						mask[idx] = true
						maskCount++
					}
				}
			}
		}
	}

	for i, c := range counts {
		percents[i] = float64(c) / float64(total) * 100.0
	}
	maskPct = float64(maskCount) / float64(total) * 100.0
	return percents, mask, maskPct, width, height
}
