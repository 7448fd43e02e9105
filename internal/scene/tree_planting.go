package scene

import (
	"image"

	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/pkg/models"
)

// Hue bands for tree-planting cues, in degrees with saturation/value floors.
var (
	brightGreenBand = hueBand{hueLo: 70, hueHi: 170, minSat: 0.196, minVal: 0.196}
	darkGreenBand   = hueBand{hueLo: 50, hueHi: 70, minSat: 0.118, minVal: 0.118}
	soilBrownBand   = hueBand{hueLo: 20, hueHi: 40, minSat: 0.196, minVal: 0.196}
	skyBlueBand     = hueBand{hueLo: 200, hueHi: 260, minSat: 0.196, minVal: 0.196}
)

// Shape cutoffs for counting vegetation regions as tree-like.
const (
	minContourArea  = 100 // pixels
	treeAspectRatio = 1.2 // bounding box height over width
)

// TreePlantingClassifier checks that the scene plausibly shows planted trees:
// enough vegetation-colored area and at least a couple of tall vegetation
// shapes. Soil and sky bands are read for informational signal only.
type TreePlantingClassifier struct {
	cfg config.VerificationConfig
}

func NewTreePlantingClassifier(cfg config.VerificationConfig) *TreePlantingClassifier {
	return &TreePlantingClassifier{cfg: cfg}
}

func (c *TreePlantingClassifier) TaskType() models.TaskType {
	return models.TaskTreePlanting
}

func (c *TreePlantingClassifier) Classify(img image.Image) models.ContextFindings {
	var findings models.ContextFindings

	bands := []hueBand{brightGreenBand, darkGreenBand, soilBrownBand, skyBlueBand}
	percents, vegetationMask, vegetationPct, width, height := maskStats(img, bands, 2)

	if vegetationPct < c.cfg.MinVegetationPct {
		findings.Issues = append(findings.Issues, "No trees or vegetation detected in the image")
	} else if vegetationPct < c.cfg.GoodVegetationPct {
		findings.Issues = append(findings.Issues, "Very little vegetation detected - ensure trees are clearly visible")
	}

	skyPct := percents[3]
	if skyPct > c.cfg.SkyPct {
		findings.Notes = append(findings.Notes, "Image appears to be taken outdoors (good for tree planting)")
	}

	treeLike := countTreeLikeObjects(vegetationMask, width, height)
	if treeLike == 0 {
		findings.Issues = append(findings.Issues, "No tree-like objects detected in the image")
	} else if treeLike < 2 {
		findings.Issues = append(findings.Issues, "Very few tree-like objects detected - ensure trees are clearly visible")
	}

	findings.Valid = len(findings.Issues) == 0
	return findings
}

// countTreeLikeObjects labels 4-connected components of the vegetation mask
// and counts those large enough whose bounding box is noticeably taller than
// wide.
func countTreeLikeObjects(mask []bool, width, height int) int {
	if len(mask) == 0 {
		return 0
	}

	visited := make([]bool, len(mask))
	count := 0
	stack := make([]int, 0, 256)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		area := 0
		minX, minY := width, height
		maxX, maxY := 0, 0

		stack = stack[:0]
		stack = append(stack, start)
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%width, idx/width
			area++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - width, idx + width} {
				if n < 0 || n >= len(mask) || visited[n] || !mask[n] {
					continue
				}
				// Row wrap guard for horizontal neighbors.
				if (n == idx-1 && x == 0) || (n == idx+1 && x == width-1) {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}

		if area > minContourArea {
			w := maxX - minX + 1
			h := maxY - minY + 1
			if w > 0 && float64(h)/float64(w) > treeAspectRatio {
				count++
			}
		}
	}

	return count
}
