package stego

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"qrseal/pkg/models"
	"qrseal/pkg/raster"
	"qrseal/pkg/seedrand"
)

// GhostCodec embeds and detects near-invisible marker pixels in white
// regions of the raster. Color quantization (screenshots) and halftoning
// (photocopies) perturb near-white values far more than a genuine scan
// of a printed original, which is what the detector measures.
type GhostCodec struct {
	cfg FeatureConfig
}

// NewGhostCodec returns a codec with the given parameters.
func NewGhostCodec(cfg FeatureConfig) *GhostCodec {
	return &GhostCodec{cfg: cfg}
}

// Embed writes up to GhostDotCount gray dots into white pixels of img,
// selected deterministically from rng. If fewer white pixels exist, all
// of them are used. The returned pattern is the audit record persisted
// with the document.
func (c *GhostCodec) Embed(img *raster.Image, rng *seedrand.Source) models.GhostPattern {
	type point struct{ x, y int }
	var white []point
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.At(x, y)
			if r >= c.cfg.GhostWhiteFloor && g >= c.cfg.GhostWhiteFloor && b >= c.cfg.GhostWhiteFloor {
				white = append(white, point{x, y})
			}
		}
	}
	if len(white) == 0 {
		return models.GhostPattern{Coordinates: []models.GhostDot{}}
	}

	n := c.cfg.GhostDotCount
	if n > len(white) {
		n = len(white)
	}
	dots := make([]models.GhostDot, 0, n)
	for _, i := range rng.Sample(len(white), n) {
		p := white[i]
		v := uint8(rng.IntRange(int(c.cfg.GhostGrayMin), int(c.cfg.GhostGrayMax)))
		img.Set(p.x, p.y, v, v, v)
		dots = append(dots, models.GhostDot{X: p.x, Y: p.y, Value: v})
	}

	return models.GhostPattern{
		Coordinates: dots,
		Count:       n,
		PatternHash: PatternHash(dots),
	}
}

// PatternHash returns the SHA-256 of the coordinate list in canonical
// (x,y) order. It is an audit fingerprint of the embedding, not a
// scoring input.
func PatternHash(dots []models.GhostDot) string {
	sorted := make([]models.GhostDot, len(dots))
	copy(sorted, dots)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	h := sha256.New()
	for _, d := range sorted {
		fmt.Fprintf(h, "%d,%d,%d\n", d.X, d.Y, d.Value)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Detect scores the candidate against the recorded pattern. Coordinates
// outside the candidate's bounds are skipped, never raised.
func (c *GhostCodec) Detect(img *raster.Image, pattern models.GhostPattern) models.GhostResult {
	if pattern.Coordinates == nil {
		return models.GhostResult{Status: models.StatusNoPattern}
	}
	if pattern.Count == 0 {
		// Nothing was embedded, nothing to verify.
		return models.GhostResult{Score: 100, Status: models.StatusPass}
	}

	detected := 0
	for _, d := range pattern.Coordinates {
		if d.X < 0 || d.Y < 0 || d.X >= img.Width || d.Y >= img.Height {
			continue
		}
		r, g, b := img.At(d.X, d.Y)
		avg := (float64(r) + float64(g) + float64(b)) / 3
		if avg < c.cfg.GhostDetectLow || avg > c.cfg.GhostDetectHigh {
			continue
		}
		if math.Abs(avg-float64(d.Value)) <= c.cfg.GhostTolerance {
			detected++
		}
	}

	rate := float64(detected) / float64(pattern.Count) * 100
	score := math.Min(100, rate*1.05)
	status := models.StatusFail
	if score >= c.cfg.GhostPassScore {
		status = models.StatusPass
	}
	return models.GhostResult{
		Score:         round2(score),
		Detected:      detected,
		Expected:      pattern.Count,
		DetectionRate: round2(rate),
		Status:        status,
	}
}
