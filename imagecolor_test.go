package decklens

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// helper: encode a PNG filled with the given colors, one vertical
// stripe per color
func stripePNG(t *testing.T, w, h int, colors ...color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stripe := w / len(colors)
	for x := 0; x < w; x++ {
		ci := x / stripe
		if ci >= len(colors) {
			ci = len(colors) - 1
		}
		for y := 0; y < h; y++ {
			img.Set(x, y, colors[ci])
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestExtractSolidColor(t *testing.T) {
	red := color.RGBA{R: 200, G: 10, B: 30, A: 255}
	data := stripePNG(t, 16, 16, red)

	a := NewExtractor(DefaultExtractorOptions()).Extract(data)
	if a.Error != "" {
		t.Fatalf("Extract failed: %s", a.Error)
	}
	if a.Format != "png" {
		t.Errorf("format = %q, want png", a.Format)
	}
	if a.Size != [2]int{16, 16} {
		t.Errorf("size = %v, want [16 16]", a.Size)
	}
	if a.AverageColor != "#c80a1e" {
		t.Errorf("average color = %q, want #c80a1e", a.AverageColor)
	}
	if want := float64(200+10+30) / 3; a.Brightness != want {
		t.Errorf("brightness = %v, want %v", a.Brightness, want)
	}
	if len(a.DominantColors) != 5 {
		t.Fatalf("got %d dominant colors, want 5", len(a.DominantColors))
	}
	// a single-color image pads the palette with that color
	for i, hex := range a.DominantColors {
		if hex != "#c80a1e" {
			t.Errorf("dominant color %d = %q, want #c80a1e", i, hex)
		}
	}
	if a.Base64 == "" {
		t.Error("missing base64 payload")
	}
}

func TestExtractPaletteValid(t *testing.T) {
	data := stripePNG(t, 60, 20,
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
		color.RGBA{B: 255, A: 255},
	)
	a := NewExtractor(DefaultExtractorOptions()).Extract(data)
	if a.Error != "" {
		t.Fatalf("Extract failed: %s", a.Error)
	}
	if len(a.DominantColors) != 5 {
		t.Fatalf("got %d dominant colors, want 5", len(a.DominantColors))
	}
	for i, hex := range a.DominantColors {
		if !IsHexColor(hex) {
			t.Errorf("dominant color %d = %q is not a hex color", i, hex)
		}
	}
	if !IsHexColor(a.AverageColor) {
		t.Errorf("average color %q is not a hex color", a.AverageColor)
	}
}

func TestExtractFallbackKMeans(t *testing.T) {
	data := stripePNG(t, 60, 20,
		color.RGBA{R: 250, G: 20, B: 20, A: 255},
		color.RGBA{R: 20, G: 250, B: 20, A: 255},
	)

	opts := DefaultExtractorOptions()
	opts.forceFallback = true
	a := NewExtractor(opts).Extract(data)
	if a.Error != "" {
		t.Fatalf("fallback Extract failed: %s", a.Error)
	}
	if len(a.DominantColors) != 5 {
		t.Fatalf("got %d dominant colors, want 5", len(a.DominantColors))
	}
	for i, hex := range a.DominantColors {
		if !IsHexColor(hex) {
			t.Errorf("dominant color %d = %q is not a hex color", i, hex)
		}
	}

	// fixed seed makes the clustering reproducible
	again := NewExtractor(opts).Extract(data)
	for i := range a.DominantColors {
		if a.DominantColors[i] != again.DominantColors[i] {
			t.Errorf("fallback palette not deterministic at %d: %q vs %q",
				i, a.DominantColors[i], again.DominantColors[i])
		}
	}
}

func TestExtractUndecodable(t *testing.T) {
	a := NewExtractor(DefaultExtractorOptions()).Extract([]byte("not an image"))
	if a.Error == "" {
		t.Fatal("expected a decode error marker")
	}
	if a.DominantColors == nil || len(a.DominantColors) != 0 {
		t.Errorf("dominant colors on error = %v, want empty", a.DominantColors)
	}
}

func TestExtractDownsamplesLargeImages(t *testing.T) {
	blue := color.RGBA{B: 180, A: 255}
	data := stripePNG(t, 300, 200, blue)

	a := NewExtractor(DefaultExtractorOptions()).Extract(data)
	if a.Error != "" {
		t.Fatalf("Extract failed: %s", a.Error)
	}
	// reported size stays at the original resolution
	if a.Size != [2]int{300, 200} {
		t.Errorf("size = %v, want [300 200]", a.Size)
	}
	if a.AverageColor != "#0000b4" {
		t.Errorf("average color = %q, want #0000b4", a.AverageColor)
	}
}
