package stego

import (
	"qrseal/pkg/models"
	"qrseal/pkg/raster"
)

// SharpnessHeuristic is the self-contained metadata channel: it bands
// the Laplacian variance of the candidate alone, with no stored
// baseline. Camera captures of printed originals are sharp; screen
// captures and recompressed copies are smooth. Deliberately coarse and
// the lowest-weighted signal in the fusion.
type SharpnessHeuristic struct {
	cfg FeatureConfig
}

// NewSharpnessHeuristic returns a heuristic with the given bands.
func NewSharpnessHeuristic(cfg FeatureConfig) *SharpnessHeuristic {
	return &SharpnessHeuristic{cfg: cfg}
}

// Score bands the candidate's edge sharpness. Degenerate inputs yield
// the neutral score 50: with no baseline there is nothing to fail
// against.
func (h *SharpnessHeuristic) Score(img *raster.Image) models.SharpnessResult {
	if img == nil || img.Width < 3 || img.Height < 3 {
		return models.SharpnessResult{Score: 50, Status: "ERROR: image too small for sharpness analysis"}
	}

	lv := raster.LaplacianVariance(img.Gray(), img.Width, img.Height)

	var score float64
	camera := false
	switch {
	case lv > h.cfg.SharpnessCameraFloor:
		score = 90
		camera = true
	case lv > h.cfg.SharpnessAmbiguousFloor:
		score = 60
	default:
		score = 30
	}

	status := models.StatusFail
	if score >= 50 {
		status = models.StatusPass
	}
	return models.SharpnessResult{
		Score:                    score,
		Sharpness:                round2(lv),
		HasCameraCharacteristics: camera,
		Status:                   status,
	}
}
