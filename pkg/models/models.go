// Package models defines the persisted security metadata record and the
// verification report returned by the counterfeit detector.
package models

// Verdict is the tri-state outcome of a verification.
type Verdict string

const (
	VerdictAuthentic   Verdict = "AUTHENTIC"
	VerdictSuspicious  Verdict = "SUSPICIOUS"
	VerdictCounterfeit Verdict = "COUNTERFEIT"
)

// Channel status strings. A channel never fails hard; it reports one of
// these (or an "ERROR: <cause>" string) and a degraded score instead.
const (
	StatusPass          = "PASS"
	StatusFail          = "FAIL"
	StatusNoPattern     = "NO_PATTERN"
	StatusNoSignature   = "NO_SIGNATURE"
	StatusNoFingerprint = "NO_FINGERPRINT"
	StatusNoPixels      = "NO_PIXELS"
	StatusSizeMismatch  = "SIZE_MISMATCH"
)

// GhostDot records one embedded marker pixel.
type GhostDot struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Value uint8 `json:"value"`
}

// GhostPattern is the audit record of the ghost-dot embedding.
// PatternHash covers the canonically sorted coordinate list and is never
// used for scoring.
type GhostPattern struct {
	Coordinates []GhostDot `json:"coordinates"`
	Count       int        `json:"count"`
	PatternHash string     `json:"pattern_hash,omitempty"`
}

// SecurityMetadata is the parameter bundle required to verify one
// generated QR instance. It is created once at generation time and must
// be stored and returned verbatim by the persistence layer.
type SecurityMetadata struct {
	GhostPattern       GhostPattern `json:"ghost_pattern"`
	WatermarkSignature [][]float64  `json:"watermark_signature"`
	FingerprintHash    string       `json:"fingerprint_hash"`
	ImageSize          [2]int       `json:"image_size"` // height, width
	SecurityVersion    int          `json:"security_version"`
}

// GhostResult is the ghost-dot channel sub-result.
type GhostResult struct {
	Score         float64 `json:"score"`
	Detected      int     `json:"detected"`
	Expected      int     `json:"expected"`
	DetectionRate float64 `json:"detection_rate"`
	Status        string  `json:"status"`
}

// FrequencyResult is the DCT watermark channel sub-result.
type FrequencyResult struct {
	Score       float64 `json:"score"`
	Correlation float64 `json:"correlation"`
	Status      string  `json:"status"`
}

// FingerprintResult is the pixel fingerprint channel sub-result.
type FingerprintResult struct {
	Score     float64 `json:"score"`
	Integrity float64 `json:"integrity"`
	Variance  float64 `json:"variance"`
	Status    string  `json:"status"`
}

// SharpnessResult is the metadata heuristic sub-result.
type SharpnessResult struct {
	Score                    float64 `json:"score"`
	Sharpness                float64 `json:"sharpness"`
	HasCameraCharacteristics bool    `json:"has_camera_characteristics"`
	Status                   string  `json:"status"`
}

// ChannelResults collects the full sub-result of every analysis channel
// so the report stays auditable.
type ChannelResults struct {
	GhostDots          GhostResult       `json:"ghost_dots"`
	FrequencyWatermark FrequencyResult   `json:"frequency_watermark"`
	PixelFingerprint   FingerprintResult `json:"pixel_fingerprint"`
	Metadata           SharpnessResult   `json:"metadata"`
}

// VerificationReport is the fused verdict for one candidate image.
type VerificationReport struct {
	Verdict           Verdict        `json:"verdict"`
	AuthenticityScore float64        `json:"authenticity_score"`
	Details           ChannelResults `json:"details"`
	Warnings          []string       `json:"warnings"`
}
