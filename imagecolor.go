package decklens

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"math/rand"
	"sort"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ExtractorOptions controls the dominant-color extraction. The clustering
// parameters are empirical and deliberately configurable; the defaults
// match DefaultExtractorOptions.
type ExtractorOptions struct {
	// PaletteSize is the exact number of dominant colors produced.
	PaletteSize int
	// MaxIterations bounds one k-means run.
	MaxIterations int
	// Epsilon stops a k-means run once no centroid moved further than this.
	Epsilon float64
	// Restarts is the number of random re-initializations; the run with the
	// lowest total squared error wins.
	Restarts int
	// MaxSampleDim is the longest image side used for clustering. Larger
	// images are downsampled first, since clustering cost is
	// O(pixels * k * iterations).
	MaxSampleDim int

	// forceFallback skips the quantization path entirely (tests only).
	forceFallback bool
}

// DefaultExtractorOptions returns the standard extraction parameters.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		PaletteSize:   5,
		MaxIterations: 20,
		Epsilon:       1.0,
		Restarts:      10,
		MaxSampleDim:  128,
	}
}

// Extractor computes color statistics for embedded images.
type Extractor struct {
	opts ExtractorOptions
}

// NewExtractor creates an Extractor. Zero option fields fall back to the
// defaults.
func NewExtractor(opts ExtractorOptions) *Extractor {
	def := DefaultExtractorOptions()
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = def.PaletteSize
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = def.Epsilon
	}
	if opts.Restarts <= 0 {
		opts.Restarts = def.Restarts
	}
	if opts.MaxSampleDim <= 0 {
		opts.MaxSampleDim = def.MaxSampleDim
	}
	return &Extractor{opts: opts}
}

// Extract decodes image bytes and produces the full per-image analysis:
// format, pixel mode, dimensions, average color, brightness, a dominant
// palette of exactly PaletteSize colors, and a base64 PNG re-encoding.
// A decode failure yields an error-marker result instead of failing the
// caller; everything after a successful decode is total.
func (e *Extractor) Extract(data []byte) *ImageAnalysis {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return &ImageAnalysis{
			Error:          fmt.Sprintf("decoding image: %v", err),
			DominantColors: []string{},
		}
	}

	mode := pixelMode(img)
	bounds := img.Bounds()
	rgba := toRGBA(img)

	avg, brightness := averageColor(rgba)

	sample := e.downsample(rgba)
	pixels := rgbaPixels(sample)

	var palette []RGB
	if e.opts.forceFallback {
		palette = e.kmeansPalette(pixels)
	} else {
		palette, err = medianCutPalette(pixels, e.opts.PaletteSize)
		if err != nil {
			palette = e.kmeansPalette(pixels)
		}
	}
	hexes := make([]string, len(palette))
	for i, c := range palette {
		hexes[i] = c.Hex()
	}

	var buf bytes.Buffer
	encoded := ""
	if err := png.Encode(&buf, rgba); err == nil {
		encoded = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	return &ImageAnalysis{
		Format:         format,
		Mode:           mode,
		Size:           [2]int{bounds.Dx(), bounds.Dy()},
		DominantColors: hexes,
		AverageColor:   avg.Hex(),
		Brightness:     brightness,
		Base64:         encoded,
	}
}

// pixelMode names the decoded pixel layout, loosely following the naming
// downstream consumers already expect for raster modes.
func pixelMode(img image.Image) string {
	switch img.(type) {
	case *image.RGBA:
		return "RGBA"
	case *image.NRGBA:
		return "RGBA"
	case *image.RGBA64, *image.NRGBA64:
		return "RGBA64"
	case *image.YCbCr:
		return "YCbCr"
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.CMYK:
		return "CMYK"
	default:
		return "unknown"
	}
}

// toRGBA normalizes any decoded image to 3-channel color backed by an
// RGBA buffer. All statistics are computed on this normalized form.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst
}

// downsample scales the image so its longest side is at most MaxSampleDim.
// Only the clustering input is downsampled; averages and the re-encoded
// payload use the full-resolution image.
func (e *Extractor) downsample(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= e.opts.MaxSampleDim {
		return src
	}
	scale := float64(e.opts.MaxSampleDim) / float64(longest)
	nw := int(math.Max(1, math.Round(float64(w)*scale)))
	nh := int(math.Max(1, math.Round(float64(h)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// averageColor returns the per-channel mean (rounded to nearest integer)
// and the brightness, the mean of the three channel means on a 0-255 scale.
func averageColor(img *image.RGBA) (RGB, float64) {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return RGB{}, 0
	}
	var sumR, sumG, sumB uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			sumR += uint64(img.Pix[i])
			sumG += uint64(img.Pix[i+1])
			sumB += uint64(img.Pix[i+2])
			i += 4
		}
	}
	n := float64(total)
	avg := RGB{
		R: uint8(math.Round(float64(sumR) / n)),
		G: uint8(math.Round(float64(sumG) / n)),
		B: uint8(math.Round(float64(sumB) / n)),
	}
	return avg, (float64(avg.R) + float64(avg.G) + float64(avg.B)) / 3
}

// rgbaPixels flattens the image into a list of RGB pixel values.
func rgbaPixels(img *image.RGBA) []RGB {
	b := img.Bounds()
	pixels := make([]RGB, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]})
			i += 4
		}
	}
	return pixels
}

// colorBox is one bucket of pixels during median-cut quantization.
type colorBox struct {
	pixels []RGB
}

// channelRanges returns the value spread of each channel within the box.
func (cb *colorBox) channelRanges() (rr, gr, br int) {
	minC := [3]int{255, 255, 255}
	maxC := [3]int{0, 0, 0}
	for _, p := range cb.pixels {
		for ch, v := range [3]int{int(p.R), int(p.G), int(p.B)} {
			if v < minC[ch] {
				minC[ch] = v
			}
			if v > maxC[ch] {
				maxC[ch] = v
			}
		}
	}
	return maxC[0] - minC[0], maxC[1] - minC[1], maxC[2] - minC[2]
}

// splittable reports whether the box spans more than one color value.
func (cb *colorBox) splittable() bool {
	rr, gr, br := cb.channelRanges()
	return len(cb.pixels) > 1 && (rr > 0 || gr > 0 || br > 0)
}

// split divides the box at the median of its widest channel.
func (cb *colorBox) split() (*colorBox, *colorBox) {
	rr, gr, br := cb.channelRanges()
	ch := 0
	if gr >= rr && gr >= br {
		ch = 1
	} else if br >= rr && br >= gr {
		ch = 2
	}
	sort.Slice(cb.pixels, func(i, j int) bool {
		return channelValue(cb.pixels[i], ch) < channelValue(cb.pixels[j], ch)
	})
	mid := len(cb.pixels) / 2
	return &colorBox{pixels: cb.pixels[:mid]}, &colorBox{pixels: cb.pixels[mid:]}
}

func channelValue(p RGB, ch int) int {
	switch ch {
	case 0:
		return int(p.R)
	case 1:
		return int(p.G)
	default:
		return int(p.B)
	}
}

// average returns the mean color of the box.
func (cb *colorBox) average() RGB {
	if len(cb.pixels) == 0 {
		return RGB{}
	}
	var sr, sg, sb uint64
	for _, p := range cb.pixels {
		sr += uint64(p.R)
		sg += uint64(p.G)
		sb += uint64(p.B)
	}
	n := uint64(len(cb.pixels))
	return RGB{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n)}
}

// medianCutPalette buckets similar pixel colors to find the k most
// prevalent ones, ordered most-to-least dominant. The result always has
// exactly k entries: a source with fewer unique colors yields repeated
// entries. It errors only on an empty pixel list, which routes the
// caller to the k-means fallback.
func medianCutPalette(pixels []RGB, k int) ([]RGB, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("median cut: no pixels to quantize")
	}
	if k <= 0 {
		return nil, fmt.Errorf("median cut: invalid palette size %d", k)
	}

	work := make([]RGB, len(pixels))
	copy(work, pixels)
	boxes := []*colorBox{{pixels: work}}

	for len(boxes) < k {
		// Split the most populous splittable box.
		best := -1
		for i, box := range boxes {
			if !box.splittable() {
				continue
			}
			if best < 0 || len(box.pixels) > len(boxes[best].pixels) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		lo, hi := boxes[best].split()
		boxes[best] = lo
		boxes = append(boxes, hi)
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		return len(boxes[i].pixels) > len(boxes[j].pixels)
	})

	palette := make([]RGB, 0, k)
	for _, box := range boxes {
		palette = append(palette, box.average())
	}
	// Degenerate sources produce fewer boxes than requested; repeat
	// entries so the palette length is always exactly k.
	for i := 0; len(palette) < k; i++ {
		palette = append(palette, palette[i%len(boxes)])
	}
	return palette, nil
}

// kmeansSeed makes clustering deterministic so repeated analyses of the
// same document produce identical reports.
const kmeansSeed = 1

// kmeansPalette clusters the pixels into PaletteSize groups and returns
// the centroids ordered by cluster population. It is the fallback when
// quantization cannot run and always returns exactly PaletteSize colors.
func (e *Extractor) kmeansPalette(pixels []RGB) []RGB {
	k := e.opts.PaletteSize
	if len(pixels) == 0 {
		return make([]RGB, k)
	}

	rng := rand.New(rand.NewSource(kmeansSeed))

	type sample [3]float64
	data := make([]sample, len(pixels))
	for i, p := range pixels {
		data[i] = sample{float64(p.R), float64(p.G), float64(p.B)}
	}

	dist2 := func(a, b sample) float64 {
		dr := a[0] - b[0]
		dg := a[1] - b[1]
		db := a[2] - b[2]
		return dr*dr + dg*dg + db*db
	}

	bestSSE := math.Inf(1)
	var bestCentroids []sample
	var bestCounts []int

	for restart := 0; restart < e.opts.Restarts; restart++ {
		centroids := make([]sample, k)
		for i := range centroids {
			centroids[i] = data[rng.Intn(len(data))]
		}
		labels := make([]int, len(data))
		counts := make([]int, k)

		for iter := 0; iter < e.opts.MaxIterations; iter++ {
			// Assignment step.
			for i, p := range data {
				best, bestD := 0, math.Inf(1)
				for c, cent := range centroids {
					if d := dist2(p, cent); d < bestD {
						best, bestD = c, d
					}
				}
				labels[i] = best
			}
			// Update step.
			sums := make([]sample, k)
			counts = make([]int, k)
			for i, p := range data {
				l := labels[i]
				sums[l][0] += p[0]
				sums[l][1] += p[1]
				sums[l][2] += p[2]
				counts[l]++
			}
			moved := 0.0
			for c := range centroids {
				var next sample
				if counts[c] == 0 {
					// Re-seed empty clusters from a random pixel.
					next = data[rng.Intn(len(data))]
				} else {
					n := float64(counts[c])
					next = sample{sums[c][0] / n, sums[c][1] / n, sums[c][2] / n}
				}
				if d := math.Sqrt(dist2(centroids[c], next)); d > moved {
					moved = d
				}
				centroids[c] = next
			}
			if moved < e.opts.Epsilon {
				break
			}
		}

		sse := 0.0
		for i, p := range data {
			sse += dist2(p, centroids[labels[i]])
		}
		if sse < bestSSE {
			bestSSE = sse
			bestCentroids = centroids
			bestCounts = counts
		}
	}

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return bestCounts[order[i]] > bestCounts[order[j]]
	})

	palette := make([]RGB, k)
	for i, idx := range order {
		c := bestCentroids[idx]
		palette[i] = RGB{
			R: uint8(math.Round(clampChannel(c[0]))),
			G: uint8(math.Round(clampChannel(c[1]))),
			B: uint8(math.Round(clampChannel(c[2]))),
		}
	}
	return palette
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
