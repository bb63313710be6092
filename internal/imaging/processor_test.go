// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/olegiv/erms-go/internal/model"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessKeepsSmallImage(t *testing.T) {
	p := NewProcessor(1280, 1280)
	data := encodeJPEG(t, createTestImage(200, 100))

	res, err := p.Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 200 || res.Height != 100 {
		t.Errorf("dimensions = %dx%d, want 200x100", res.Width, res.Height)
	}
	if len(res.Data) == 0 {
		t.Error("no data returned")
	}
	// Output is always JPEG.
	if _, format, err := image.DecodeConfig(bytes.NewReader(res.Data)); err != nil || format != "jpeg" {
		t.Errorf("output format = %q err = %v", format, err)
	}
}

func TestProcessDownscalesLargeImage(t *testing.T) {
	p := NewProcessor(400, 400)
	data := encodeJPEG(t, createTestImage(800, 600))

	res, err := p.Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 400 || res.Height != 300 {
		t.Errorf("dimensions = %dx%d, want 400x300", res.Width, res.Height)
	}
}

func TestProcessReencodesPNG(t *testing.T) {
	p := NewProcessor(1280, 1280)
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(50, 50)); err != nil {
		t.Fatalf("encoding png: %v", err)
	}

	res, err := p.Process(&buf)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(res.Data)); err != nil || format != "jpeg" {
		t.Errorf("output format = %q err = %v", format, err)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	p := NewProcessor(1280, 1280)

	_, err := p.Process(strings.NewReader("definitely not an image"))
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46}, "jpeg"},
		{"png", []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}, "png"},
		{"gif", []byte("GIF89a"), "gif"},
		{"text", []byte("hello world"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(40, 20)

	// Rotations swap dimensions, flips keep them.
	rotated := applyOrientation(img, 6)
	if b := rotated.Bounds(); b.Dx() != 20 || b.Dy() != 40 {
		t.Errorf("orientation 6 bounds = %dx%d, want 20x40", b.Dx(), b.Dy())
	}
	flipped := applyOrientation(img, 2)
	if b := flipped.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("orientation 2 bounds = %dx%d, want 40x20", b.Dx(), b.Dy())
	}
	normal := applyOrientation(img, 1)
	if normal != img {
		t.Error("orientation 1 must be identity")
	}
}
