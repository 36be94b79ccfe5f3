// Package secureqr orchestrates the security pipeline: the generator
// renders a QR symbol and embeds the three marker layers into it, the
// detector extracts and scores those layers from a candidate image.
package secureqr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"qrseal/pkg/models"
	"qrseal/pkg/raster"
	"qrseal/pkg/seedrand"
	"qrseal/pkg/stego"
)

// Options controls the rendered QR geometry.
type Options struct {
	BoxSize int // Pixels per module; <= 0 selects the default of 10
	Border  int // Quiet-zone width in modules; < 0 selects the default of 4
}

// DefaultOptions returns the standard rendering geometry.
func DefaultOptions() Options {
	return Options{BoxSize: 10, Border: 4}
}

func (o Options) normalized() Options {
	if o.BoxSize <= 0 {
		o.BoxSize = 10
	}
	if o.Border < 0 {
		o.Border = 4
	}
	return o
}

// Generator renders QR symbols and embeds the security feature layers.
// Generation is pure and deterministic: identical (data, documentID)
// inputs reproduce bit-identical images and metadata.
type Generator struct {
	features stego.FeatureConfig
}

// NewGenerator returns a generator with the production parameters.
func NewGenerator() *Generator {
	return NewGeneratorWithConfig(stego.DefaultFeatureConfig())
}

// NewGeneratorWithConfig returns a generator with explicit parameters.
func NewGeneratorWithConfig(cfg stego.FeatureConfig) *Generator {
	return &Generator{features: cfg}
}

// stage is one step of the embedding pipeline. Each stage consumes the
// buffer and returns it (or a replacement), making the ordering an
// explicit, checked data flow rather than hidden shared mutation.
type stage struct {
	name  string
	apply func(*raster.Image) (*raster.Image, error)
}

// Generate renders data as a high-error-correction QR symbol and embeds
// the three security layers, seeded from documentID. It returns the PNG
// raster and the metadata record that must be persisted verbatim for
// later verification.
//
// The stage order is a correctness invariant, not an optimization: the
// frequency watermark blends the whole raster including the ghost
// pixels already placed, and the fingerprint perturbs the blended
// result. Reordering changes final pixel values and recorded
// signatures.
func (g *Generator) Generate(data, documentID string, opts Options) ([]byte, models.SecurityMetadata, error) {
	if data == "" {
		return nil, models.SecurityMetadata{}, errors.New("data must not be empty")
	}
	if documentID == "" {
		return nil, models.SecurityMetadata{}, errors.New("document id must not be empty")
	}

	img, err := renderSymbol(data, opts.normalized())
	if err != nil {
		return nil, models.SecurityMetadata{}, err
	}

	ghost := stego.NewGhostCodec(g.features)
	frequency := stego.NewFrequencyCodec(g.features)
	fingerprint := stego.NewFingerprintCodec(g.features)

	seedSum := sha256.Sum256([]byte(documentID))
	seedHash := hex.EncodeToString(seedSum[:])

	var pattern models.GhostPattern
	var signature [][]float64
	var fingerprintHash string

	stages := []stage{
		{"ghost-dots", func(im *raster.Image) (*raster.Image, error) {
			pattern = ghost.Embed(im, seedrand.New(documentID, "ghost"))
			return im, nil
		}},
		{"frequency-watermark", func(im *raster.Image) (*raster.Image, error) {
			signature = frequency.Embed(im, seedrand.New(documentID, "frequency"))
			return im, nil
		}},
		{"pixel-fingerprint", func(im *raster.Image) (*raster.Image, error) {
			fingerprintHash = fingerprint.Embed(im, seedrand.New(documentID, "fingerprint"), seedHash)
			return im, nil
		}},
	}
	for _, st := range stages {
		if img, err = st.apply(img); err != nil {
			return nil, models.SecurityMetadata{}, fmt.Errorf("embedding stage %s: %w", st.name, err)
		}
	}

	png, err := img.EncodePNG()
	if err != nil {
		return nil, models.SecurityMetadata{}, err
	}

	meta := models.SecurityMetadata{
		GhostPattern:       pattern,
		WatermarkSignature: signature,
		FingerprintHash:    fingerprintHash,
		ImageSize:          [2]int{img.Height, img.Width},
		SecurityVersion:    seedrand.Version,
	}
	return png, meta, nil
}

// renderSymbol rasterizes data as a QR code with the highest error
// correction level, opts.BoxSize pixels per module and an opts.Border
// module quiet zone.
func renderSymbol(data string, opts Options) (*raster.Image, error) {
	code, err := qrcode.New(data, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR symbol: %w", err)
	}
	code.DisableBorder = true

	modules := code.Bitmap()
	side := len(modules)
	total := (side + 2*opts.Border) * opts.BoxSize

	img := raster.New(total, total)
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for my, row := range modules {
		for mx, dark := range row {
			if !dark {
				continue
			}
			x0 := (mx + opts.Border) * opts.BoxSize
			y0 := (my + opts.Border) * opts.BoxSize
			for y := y0; y < y0+opts.BoxSize; y++ {
				for x := x0; x < x0+opts.BoxSize; x++ {
					img.Set(x, y, 0, 0, 0)
				}
			}
		}
	}
	return img, nil
}
