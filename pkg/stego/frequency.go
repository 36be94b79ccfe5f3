package stego

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"qrseal/pkg/dct"
	"qrseal/pkg/models"
	"qrseal/pkg/raster"
	"qrseal/pkg/seedrand"
)

// FrequencyCodec embeds and verifies a pseudorandom signature in the
// mid-frequency band of the image's DCT spectrum. The watermark is
// designed to survive moderate recompression while remaining invisible.
type FrequencyCodec struct {
	cfg FeatureConfig
}

// NewFrequencyCodec returns a codec with the given parameters.
func NewFrequencyCodec(cfg FeatureConfig) *FrequencyCodec {
	return &FrequencyCodec{cfg: cfg}
}

// Embed derives a standard-normal signature from rng and adds it, scaled
// by the mean magnitude of the target block, into the mid-frequency
// coefficients starting at (h/4, w/4). The result is blended 70/30 with
// the original so the QR symbol stays machine-readable. Returns the
// signature to be persisted.
func (c *FrequencyCodec) Embed(img *raster.Image, rng *seedrand.Source) [][]float64 {
	size := c.cfg.SignatureSize
	sig := make([][]float64, size)
	for i := range sig {
		sig[i] = make([]float64, size)
		for j := range sig[i] {
			sig[i][j] = rng.NormFloat64()
		}
	}

	h, w := img.Height, img.Width
	midH, midW := h/4, w/4
	if midH+size > h || midW+size > w {
		// Raster too small to carry the watermark; leave it unmarked.
		return sig
	}

	coeffs := dct.Forward(mat.NewDense(h, w, img.Gray()))

	var magSum float64
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			magSum += math.Abs(coeffs.At(midH+i, midW+j))
		}
	}
	scale := c.cfg.WatermarkStrength * magSum / float64(size*size)

	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			coeffs.Set(midH+i, midW+j, coeffs.At(midH+i, midW+j)+sig[i][j]*scale)
		}
	}

	marked := dct.Inverse(coeffs)
	blend := c.cfg.WatermarkBlend
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mv := clampU8(marked.At(y, x))
			r, g, b := img.At(x, y)
			img.Set(x, y,
				blendU8(r, mv, blend),
				blendU8(g, mv, blend),
				blendU8(b, mv, blend))
		}
	}
	return sig
}

// Verify extracts the candidate's mid-frequency block and scores the
// Pearson correlation against the stored signature. The candidate is
// resized to the recorded generation size first: DCT frequency bins
// depend on image dimensions, so a size mismatch would sample the wrong
// band entirely. Numerical failures degrade to a zero score with an
// ERROR status; they never escape this channel.
func (c *FrequencyCodec) Verify(img *raster.Image, signature [][]float64, expectedSize [2]int) (res models.FrequencyResult) {
	if len(signature) == 0 || len(signature[0]) == 0 {
		return models.FrequencyResult{Status: models.StatusNoSignature}
	}
	defer func() {
		if r := recover(); r != nil {
			res = models.FrequencyResult{Status: fmt.Sprintf("ERROR: %v", r)}
		}
	}()
	if img == nil || img.Width == 0 || img.Height == 0 {
		return models.FrequencyResult{Status: "ERROR: empty image"}
	}

	work := img
	if th, tw := expectedSize[0], expectedSize[1]; th > 0 && tw > 0 && (img.Height != th || img.Width != tw) {
		work = img.Resize(tw, th)
	}

	h, w := work.Height, work.Width
	coeffs := dct.Forward(mat.NewDense(h, w, work.Gray()))

	sigH, sigW := len(signature), len(signature[0])
	midH, midW := h/4, w/4
	if midH+sigH > h || midW+sigW > w {
		return models.FrequencyResult{Status: models.StatusSizeMismatch}
	}

	stored := make([]float64, 0, sigH*sigW)
	extracted := make([]float64, 0, sigH*sigW)
	for i := 0; i < sigH; i++ {
		if len(signature[i]) != sigW {
			return models.FrequencyResult{Status: models.StatusSizeMismatch}
		}
		for j := 0; j < sigW; j++ {
			stored = append(stored, signature[i][j])
			extracted = append(extracted, coeffs.At(midH+i, midW+j))
		}
	}

	corr := stat.Correlation(stored, extracted, nil)
	if math.IsNaN(corr) {
		corr = 0
	}

	score := math.Max(0, math.Min(100, corr*100))
	status := models.StatusFail
	if score >= c.cfg.FrequencyPassScore {
		status = models.StatusPass
	}
	return models.FrequencyResult{
		Score:       round2(score),
		Correlation: round4(corr),
		Status:      status,
	}
}

func clampU8(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

func blendU8(orig, marked uint8, blend float64) uint8 {
	return clampU8((1-blend)*float64(orig) + blend*float64(marked))
}
