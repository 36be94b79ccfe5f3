package stego

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qrseal/pkg/models"
	"qrseal/pkg/raster"
)

func TestSharpnessFlatImageLooksLikeScreenCapture(t *testing.T) {
	h := NewSharpnessHeuristic(DefaultFeatureConfig())
	res := h.Score(grayImage(40, 40, 128))
	assert.Equal(t, float64(30), res.Score)
	assert.False(t, res.HasCameraCharacteristics)
	assert.Equal(t, models.StatusFail, res.Status)
}

func TestSharpnessEdgyImageLooksLikeCamera(t *testing.T) {
	h := NewSharpnessHeuristic(DefaultFeatureConfig())
	img := raster.New(40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, 255, 255, 255)
			}
		}
	}

	res := h.Score(img)
	assert.Equal(t, float64(90), res.Score)
	assert.True(t, res.HasCameraCharacteristics)
	assert.Equal(t, models.StatusPass, res.Status)
}

func TestSharpnessDegenerateInputIsNeutral(t *testing.T) {
	h := NewSharpnessHeuristic(DefaultFeatureConfig())

	for _, img := range []*raster.Image{nil, raster.New(2, 2), raster.New(0, 0)} {
		res := h.Score(img)
		assert.Equal(t, float64(50), res.Score)
		assert.Contains(t, res.Status, "ERROR")
	}
}
