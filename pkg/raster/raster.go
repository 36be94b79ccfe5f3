// Package raster provides the 8-bit RGB pixel buffer the security
// pipeline operates on, plus the image plumbing around it: PNG
// encode/decode, grayscale conversion, high-quality resizing and the
// Laplacian sharpness measure.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// Image is an H x W raster with three 8-bit channels per pixel, stored
// row-major as R,G,B triplets.
type Image struct {
	Pix    []uint8
	Width  int
	Height int
}

// New returns an all-black image of the given dimensions.
func New(width, height int) *Image {
	return &Image{
		Pix:    make([]uint8, width*height*3),
		Width:  width,
		Height: height,
	}
}

// At returns the channel values at (x,y). The caller must stay in bounds.
func (im *Image) At(x, y int) (r, g, b uint8) {
	i := (y*im.Width + x) * 3
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}

// Set writes the channel values at (x,y). The caller must stay in bounds.
func (im *Image) Set(x, y int, r, g, b uint8) {
	i := (y*im.Width + x) * 3
	im.Pix[i] = r
	im.Pix[i+1] = g
	im.Pix[i+2] = b
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := New(im.Width, im.Height)
	copy(out.Pix, im.Pix)
	return out
}

// FromImage converts any decoded image to an RGB raster, dropping alpha.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			out.Pix[i] = uint8(r >> 8)
			out.Pix[i+1] = uint8(g >> 8)
			out.Pix[i+2] = uint8(bl >> 8)
			i += 3
		}
	}
	return out
}

// ToNRGBA converts the raster to a stdlib image with opaque alpha.
func (im *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	si := 0
	for y := 0; y < im.Height; y++ {
		di := y * out.Stride
		for x := 0; x < im.Width; x++ {
			out.Pix[di] = im.Pix[si]
			out.Pix[di+1] = im.Pix[si+1]
			out.Pix[di+2] = im.Pix[si+2]
			out.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return out
}

// Decode reads a PNG or JPEG stream into an RGB raster.
func Decode(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// DecodeBytes decodes an in-memory PNG or JPEG image.
func DecodeBytes(data []byte) (*Image, error) {
	return Decode(bytes.NewReader(data))
}

// LoadFile reads an image from disk.
func LoadFile(filename string) (*Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// EncodePNG serializes the raster as a PNG.
func (im *Image) EncodePNG() ([]byte, error) {
	if im.Width == 0 || im.Height == 0 {
		return nil, errors.New("cannot encode empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, im.ToNRGBA()); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Gray returns the luma plane using the ITU-R BT.601 weights.
func (im *Image) Gray() []float64 {
	out := make([]float64, im.Width*im.Height)
	for i := range out {
		p := i * 3
		out[i] = 0.299*float64(im.Pix[p]) + 0.587*float64(im.Pix[p+1]) + 0.114*float64(im.Pix[p+2])
	}
	return out
}

// Resize scales the raster to the given dimensions with Catmull-Rom
// interpolation. Verification depends on high-quality resampling: the
// watermark's frequency bin moves with image dimensions.
func (im *Image) Resize(width, height int) *Image {
	if width == im.Width && height == im.Height {
		return im.Clone()
	}
	src := im.ToNRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FromImage(dst)
}

// LaplacianVariance measures edge sharpness: the population variance of
// the 4-neighbour Laplacian response over the interior of a grayscale
// plane. Flat or heavily smoothed images score near zero.
func LaplacianVariance(gray []float64, width, height int) float64 {
	if width < 3 || height < 3 {
		return 0
	}
	n := 0
	var sum, sumSq float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			l := gray[i-width] + gray[i+width] + gray[i-1] + gray[i+1] - 4*gray[i]
			sum += l
			sumSq += l * l
			n++
		}
	}
	mean := sum / float64(n)
	v := sumSq/float64(n) - mean*mean
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
