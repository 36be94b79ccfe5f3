package stego

import (
	"math"

	"qrseal/pkg/models"
)

// VerdictEngine fuses the four channel scores into a tri-state verdict.
// The full sub-result of every channel is retained in the report for
// audit; a composite score is always computable from whatever channel
// results exist.
type VerdictEngine struct {
	cfg VerdictConfig
}

// NewVerdictEngine returns an engine with the given fusion parameters.
func NewVerdictEngine(cfg VerdictConfig) *VerdictEngine {
	return &VerdictEngine{cfg: cfg}
}

// Compose computes the weighted composite score and classifies it.
func (e *VerdictEngine) Compose(
	ghost models.GhostResult,
	frequency models.FrequencyResult,
	fingerprint models.FingerprintResult,
	metadata models.SharpnessResult,
) models.VerificationReport {
	w := e.cfg.Weights
	composite := ghost.Score*w.GhostDots +
		frequency.Score*w.Frequency +
		fingerprint.Score*w.Fingerprint +
		metadata.Score*w.Metadata

	var verdict models.Verdict
	var warnings []string
	switch {
	case composite >= e.cfg.AuthenticThreshold:
		verdict = models.VerdictAuthentic
	case composite >= e.cfg.SuspiciousThreshold:
		verdict = models.VerdictSuspicious
		warnings = []string{"authenticity score is below the recommended threshold"}
	default:
		verdict = models.VerdictCounterfeit
		warnings = []string{"multiple security features failed verification"}
	}

	return models.VerificationReport{
		Verdict:           verdict,
		AuthenticityScore: round2(composite),
		Details: models.ChannelResults{
			GhostDots:          ghost,
			FrequencyWatermark: frequency,
			PixelFingerprint:   fingerprint,
			Metadata:           metadata,
		},
		Warnings: warnings,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
