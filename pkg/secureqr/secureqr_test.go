package secureqr

import (
	"bytes"
	"image/jpeg"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrseal/pkg/models"
	"qrseal/pkg/raster"
	"qrseal/pkg/seedrand"
)

func generate(t *testing.T, data, id string) ([]byte, models.SecurityMetadata) {
	t.Helper()
	png, meta, err := NewGenerator().Generate(data, id, DefaultOptions())
	require.NoError(t, err)
	return png, meta
}

func requireValidReport(t *testing.T, r models.VerificationReport) {
	t.Helper()
	require.GreaterOrEqual(t, r.AuthenticityScore, 0.0)
	require.LessOrEqual(t, r.AuthenticityScore, 100.0)
	require.Contains(t, []models.Verdict{
		models.VerdictAuthentic, models.VerdictSuspicious, models.VerdictCounterfeit,
	}, r.Verdict)
}

func TestGenerateIsDeterministic(t *testing.T) {
	pngA, metaA := generate(t, "https://example.com/verify/abc", "DOC-42")
	pngB, metaB := generate(t, "https://example.com/verify/abc", "DOC-42")

	assert.True(t, bytes.Equal(pngA, pngB), "identical inputs must reproduce identical PNG bytes")
	assert.Equal(t, metaA, metaB)

	_, metaC := generate(t, "https://example.com/verify/abc", "DOC-43")
	assert.NotEqual(t, metaA.GhostPattern.PatternHash, metaC.GhostPattern.PatternHash)
}

func TestGenerateRejectsEmptyInputs(t *testing.T) {
	gen := NewGenerator()

	_, _, err := gen.Generate("", "DOC-1", DefaultOptions())
	assert.Error(t, err)

	_, _, err = gen.Generate("payload", "", DefaultOptions())
	assert.Error(t, err)
}

func TestGenerateMetadataMatchesImage(t *testing.T) {
	png, meta := generate(t, "https://site/x", "DOC1")

	img, err := raster.DecodeBytes(png)
	require.NoError(t, err)
	assert.Equal(t, [2]int{img.Height, img.Width}, meta.ImageSize)

	assert.Equal(t, 40, meta.GhostPattern.Count)
	assert.Len(t, meta.GhostPattern.Coordinates, 40)
	assert.Len(t, meta.GhostPattern.PatternHash, 64)
	assert.Len(t, meta.FingerprintHash, 64)
	assert.Equal(t, seedrand.Version, meta.SecurityVersion)

	require.Len(t, meta.WatermarkSignature, 8)
	for _, row := range meta.WatermarkSignature {
		require.Len(t, row, 8)
	}

	for _, dot := range meta.GhostPattern.Coordinates {
		assert.Less(t, dot.X, img.Width)
		assert.Less(t, dot.Y, img.Height)
		assert.GreaterOrEqual(t, dot.Value, uint8(250))
		assert.LessOrEqual(t, dot.Value, uint8(254))
	}
}

func TestRoundTripVerifiesAuthentic(t *testing.T) {
	png, meta := generate(t, "https://site/x", "DOC1")

	report, err := NewDetector().VerifyBytes(png, meta)
	require.NoError(t, err)

	assert.Equal(t, models.VerdictAuthentic, report.Verdict)
	assert.GreaterOrEqual(t, report.AuthenticityScore, 70.0)

	ghost := report.Details.GhostDots
	assert.GreaterOrEqual(t, ghost.Score, 95.0)
	assert.Equal(t, models.StatusPass, ghost.Status)

	assert.Equal(t, models.StatusPass, report.Details.PixelFingerprint.Status)
	assert.Equal(t, float64(90), report.Details.Metadata.Score)
}

func TestContrastShiftedCopyIsFlagged(t *testing.T) {
	png, meta := generate(t, "https://site/x", "DOC1")

	img, err := raster.DecodeBytes(png)
	require.NoError(t, err)
	for i, v := range img.Pix {
		img.Pix[i] = uint8(math.Round(0.95*float64(v) + 5))
	}

	report := NewDetector().Verify(img, meta)
	requireValidReport(t, report)

	// The shift moves near-white pixels out of the detection window or
	// past the tolerance, so at most a stray dot or two survives.
	assert.Less(t, report.Details.GhostDots.Score, 70.0)
	assert.Equal(t, models.StatusFail, report.Details.GhostDots.Status)
	assert.NotEqual(t, models.VerdictAuthentic, report.Verdict)
}

func TestQuantizedCopySurvivesGhostDetection(t *testing.T) {
	png, meta := generate(t, "https://site/x", "DOC1")

	img, err := raster.DecodeBytes(png)
	require.NoError(t, err)
	for i, v := range img.Pix {
		img.Pix[i] = v - v%5
	}

	report := NewDetector().Verify(img, meta)
	requireValidReport(t, report)

	// Quantizing down to multiples of five keeps almost every dot
	// inside the detection window and tolerance.
	assert.GreaterOrEqual(t, report.Details.GhostDots.Score, 70.0)
}

func TestResizedCandidateIsHandled(t *testing.T) {
	png, meta := generate(t, "https://site/x", "DOC1")

	img, err := raster.DecodeBytes(png)
	require.NoError(t, err)
	small := img.Resize(img.Width/2, img.Height/2)

	report := NewDetector().Verify(small, meta)
	requireValidReport(t, report)
	assert.NotContains(t, report.Details.FrequencyWatermark.Status, "SIZE_MISMATCH")
}

func TestJPEGReencodedCandidateIsHandled(t *testing.T) {
	png, meta := generate(t, "https://site/x", "DOC1")

	img, err := raster.DecodeBytes(png)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img.ToNRGBA(), &jpeg.Options{Quality: 75}))

	report, err := NewDetector().VerifyBytes(buf.Bytes(), meta)
	require.NoError(t, err)
	requireValidReport(t, report)
}

func TestVerifyWithEmptyMetadata(t *testing.T) {
	png, _ := generate(t, "https://site/x", "DOC1")

	report, err := NewDetector().VerifyBytes(png, models.SecurityMetadata{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNoPattern, report.Details.GhostDots.Status)
	assert.Equal(t, models.StatusNoSignature, report.Details.FrequencyWatermark.Status)
	assert.Equal(t, models.StatusNoFingerprint, report.Details.PixelFingerprint.Status)
	assert.Equal(t, models.VerdictCounterfeit, report.Verdict)
}

func TestVerifyNilImage(t *testing.T) {
	_, meta := generate(t, "https://site/x", "DOC1")

	report := NewDetector().Verify(nil, meta)
	requireValidReport(t, report)
	assert.Equal(t, models.VerdictCounterfeit, report.Verdict)
}

func TestVerifyBytesRejectsGarbage(t *testing.T) {
	_, err := NewDetector().VerifyBytes([]byte("not an image"), models.SecurityMetadata{})
	assert.Error(t, err)
}
