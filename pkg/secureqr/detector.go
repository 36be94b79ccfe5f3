package secureqr

import (
	"fmt"

	"qrseal/pkg/models"
	"qrseal/pkg/raster"
	"qrseal/pkg/stego"
)

// Detector runs the four analysis channels over a candidate image and
// fuses their scores. A channel failure degrades that channel's score;
// it never aborts the others, so every call yields an actionable
// verdict.
type Detector struct {
	ghost       *stego.GhostCodec
	frequency   *stego.FrequencyCodec
	fingerprint *stego.FingerprintCodec
	sharpness   *stego.SharpnessHeuristic
	verdict     *stego.VerdictEngine
}

// NewDetector returns a detector with the production parameters.
func NewDetector() *Detector {
	return NewDetectorWithConfig(stego.DefaultFeatureConfig(), stego.DefaultVerdictConfig())
}

// NewDetectorWithConfig returns a detector with explicit parameters.
func NewDetectorWithConfig(features stego.FeatureConfig, verdict stego.VerdictConfig) *Detector {
	return &Detector{
		ghost:       stego.NewGhostCodec(features),
		frequency:   stego.NewFrequencyCodec(features),
		fingerprint: stego.NewFingerprintCodec(features),
		sharpness:   stego.NewSharpnessHeuristic(features),
		verdict:     stego.NewVerdictEngine(verdict),
	}
}

// Verify scores the candidate against the metadata recorded at
// generation time. The candidate is read-only; it is never mutated.
func (d *Detector) Verify(candidate *raster.Image, meta models.SecurityMetadata) models.VerificationReport {
	if candidate == nil {
		candidate = raster.New(0, 0)
	}

	ghostRes := d.ghost.Detect(candidate, meta.GhostPattern)
	freqRes := d.frequency.Verify(candidate, meta.WatermarkSignature, meta.ImageSize)
	fpRes := d.fingerprint.Verify(candidate, meta.FingerprintHash)
	metaRes := d.sharpness.Score(candidate)

	return d.verdict.Compose(ghostRes, freqRes, fpRes, metaRes)
}

// VerifyBytes decodes a PNG or JPEG candidate and verifies it.
func (d *Detector) VerifyBytes(imageBytes []byte, meta models.SecurityMetadata) (models.VerificationReport, error) {
	img, err := raster.DecodeBytes(imageBytes)
	if err != nil {
		return models.VerificationReport{}, fmt.Errorf("failed to decode candidate image: %w", err)
	}
	return d.Verify(img, meta), nil
}
