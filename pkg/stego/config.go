// Package stego implements the layered security features embedded into
// a QR raster and the analysis channels that score them on a candidate
// image: ghost dots, a DCT-domain watermark, a pixel fingerprint and a
// sharpness heuristic, fused by the verdict engine.
package stego

// FeatureConfig contains the tunable parameters of the embedding codecs
// and their detection thresholds. Values are fixed at construction;
// generation and verification of one document must use the same set.
type FeatureConfig struct {
	// Ghost dot settings
	GhostDotCount   int     // Number of ghost dots to embed
	GhostGrayMin    uint8   // Lower bound of the near-white embed range
	GhostGrayMax    uint8   // Upper bound of the near-white embed range
	GhostWhiteFloor uint8   // Channel value above which a pixel counts as white
	GhostDetectLow  float64 // Lower bound of the detection window
	GhostDetectHigh float64 // Upper bound of the detection window
	GhostTolerance  float64 // Allowed distance from the recorded value
	GhostPassScore  float64 // Channel PASS threshold

	// Frequency watermark settings
	SignatureSize      int     // Square signature dimension
	WatermarkStrength  float64 // Embed strength relative to block magnitude
	WatermarkBlend     float64 // Watermarked share of the output blend
	FrequencyPassScore float64 // Channel PASS threshold

	// Pixel fingerprint settings
	FingerprintStride   int     // Grid stride and offset
	FingerprintStrength int     // Max absolute per-channel noise
	VarianceLow         float64 // Lower bound of the healthy variance band
	VarianceHigh        float64 // Upper bound of the healthy variance band
	FingerprintPass     float64 // Channel PASS threshold

	// Sharpness heuristic bands
	SharpnessCameraFloor    float64 // Above this the image looks camera-captured
	SharpnessAmbiguousFloor float64 // Above this the image is ambiguous
}

// DefaultFeatureConfig returns the production parameter set.
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		GhostDotCount:   40,
		GhostGrayMin:    250,
		GhostGrayMax:    254,
		GhostWhiteFloor: 250,
		GhostDetectLow:  245,
		GhostDetectHigh: 255,
		GhostTolerance:  5,
		GhostPassScore:  70,

		SignatureSize:      8,
		WatermarkStrength:  0.1,
		WatermarkBlend:     0.3, // 70% original / 30% watermarked keeps the symbol scannable
		FrequencyPassScore: 50,

		FingerprintStride:   5,
		FingerprintStrength: 3,
		VarianceLow:         50,
		VarianceHigh:        200,
		FingerprintPass:     60,

		SharpnessCameraFloor:    100,
		SharpnessAmbiguousFloor: 50,
	}
}

// Weights are the channel shares of the fused authenticity score. Ghost
// dots and the fingerprint dominate: they degrade most reliably across
// copy generations. The frequency watermark is oversensitive to
// legitimate resizing and the sharpness heuristic has no baseline, so
// both are down-weighted.
type Weights struct {
	GhostDots   float64
	Frequency   float64
	Fingerprint float64
	Metadata    float64
}

// VerdictConfig holds the fusion weights and verdict thresholds.
type VerdictConfig struct {
	Weights             Weights
	AuthenticThreshold  float64 // Composite score for AUTHENTIC
	SuspiciousThreshold float64 // Below AuthenticThreshold, above this is SUSPICIOUS
}

// DefaultVerdictConfig returns the tuned production fusion parameters.
func DefaultVerdictConfig() VerdictConfig {
	return VerdictConfig{
		Weights: Weights{
			GhostDots:   0.45,
			Frequency:   0.10,
			Fingerprint: 0.35,
			Metadata:    0.10,
		},
		AuthenticThreshold:  70,
		SuspiciousThreshold: 40,
	}
}
