// Package pdfstamp places a secure QR seal on PDF documents and
// recovers embedded seal images from uploaded PDFs for verification.
package pdfstamp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	_ "image/jpeg"
	_ "image/png"
)

// watermarkDesc anchors the seal in the bottom-right corner of the
// page, slightly inset, at a fixed absolute scale.
const watermarkDesc = "pos:br, off:-20 20, scale:0.15 abs, rot:0"

// StampLastPage stamps the QR seal PNG onto the last page of the PDF
// and returns the stamped document.
func StampLastPage(pdfBytes, qrPNG []byte) ([]byte, error) {
	if len(pdfBytes) == 0 {
		return nil, errors.New("pdfstamp: empty PDF input")
	}
	if len(qrPNG) == 0 {
		return nil, errors.New("pdfstamp: empty QR image")
	}

	dir, err := os.MkdirTemp("", "pdfstamp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "in.pdf")
	outPath := filepath.Join(dir, "out.pdf")
	qrPath := filepath.Join(dir, "seal.png")
	if err := os.WriteFile(inPath, pdfBytes, 0o600); err != nil {
		return nil, err
	}
	if err := os.WriteFile(qrPath, qrPNG, 0o600); err != nil {
		return nil, err
	}

	pages, err := api.PageCountFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("pdfstamp: failed to read PDF: %w", err)
	}
	if pages < 1 {
		return nil, errors.New("pdfstamp: PDF has no pages")
	}

	wm, err := api.ImageWatermark(qrPath, watermarkDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("pdfstamp: failed to build watermark: %w", err)
	}
	if err := api.AddWatermarksFile(inPath, outPath, []string{strconv.Itoa(pages)}, wm, nil); err != nil {
		return nil, fmt.Errorf("pdfstamp: failed to stamp PDF: %w", err)
	}

	return os.ReadFile(outPath)
}

// ExtractImages pulls every embedded raster image out of the PDF.
func ExtractImages(pdfBytes []byte) ([][]byte, error) {
	if len(pdfBytes) == 0 {
		return nil, errors.New("pdfstamp: empty PDF input")
	}

	dir, err := os.MkdirTemp("", "pdfextract-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(inPath, pdfBytes, 0o600); err != nil {
		return nil, err
	}

	outDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, err
	}
	if err := api.ExtractImagesFile(inPath, outDir, nil, nil); err != nil {
		return nil, fmt.Errorf("pdfstamp: failed to extract images: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var images [][]byte
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}

// ExtractCandidate returns the largest decodable image in the PDF,
// which for stamped documents is the seal itself on most inputs.
func ExtractCandidate(pdfBytes []byte) ([]byte, error) {
	images, err := ExtractImages(pdfBytes)
	if err != nil {
		return nil, err
	}

	var best []byte
	bestArea := -1
	for _, data := range images {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			continue
		}
		if area := cfg.Width * cfg.Height; area > bestArea {
			bestArea = area
			best = data
		}
	}
	if best == nil {
		return nil, errors.New("pdfstamp: no decodable images in PDF")
	}
	return best, nil
}
