package decklens

import (
	"fmt"
	"math"
	"strings"
)

// Analyzer turns a Presentation into a Report. It holds only
// configuration; every Analyze call owns its own accumulators, so one
// Analyzer can be reused across documents.
type Analyzer struct {
	extractor *Extractor
}

// NewAnalyzer creates an Analyzer with default extraction options.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWith(DefaultExtractorOptions())
}

// NewAnalyzerWith creates an Analyzer with custom extraction options.
func NewAnalyzerWith(opts ExtractorOptions) *Analyzer {
	return &Analyzer{extractor: NewExtractor(opts)}
}

// stringSet is an insertion-ordered string set used for color and font
// deduplication.
type stringSet struct {
	seen  map[string]struct{}
	order []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *stringSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

func (s *stringSet) values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Analyze walks all slides in order and assembles the analysis report.
// Failures below the document level never abort the traversal: a shape
// or image that cannot be fully read degrades to empty attributes.
func (a *Analyzer) Analyze(pres *Presentation) *Report {
	report := &Report{
		PresentationInfo: presentationInfo(pres),
		Slides:           make([]*SlideResult, 0, len(pres.Slides)),
	}

	globalColors := newStringSet()
	globalFonts := newStringSet()
	imageCount := 0
	layouts := make([]string, 0, len(pres.Slides))

	for i, slide := range pres.Slides {
		sr := a.analyzeSlide(slide, i+1)
		report.Slides = append(report.Slides, sr)

		imageCount += sr.ImageCount
		layouts = append(layouts, sr.Layout)
		globalColors.addAll(sr.Colors)
		globalFonts.addAll(sr.Fonts)
	}

	report.GlobalAnalysis = GlobalAnalysis{
		TotalSlides:  len(pres.Slides),
		ColorPalette: globalColors.values(),
		FontsUsed:    globalFonts.values(),
		ImageCount:   imageCount,
		SlideLayouts: layouts,
	}
	return report
}

func presentationInfo(pres *Presentation) PresentationInfo {
	w, h := pres.SlideWidth, pres.SlideHeight
	aspect := 0.0
	if h != 0 {
		aspect = math.Round(float64(w)/float64(h)*100) / 100
	}
	return PresentationInfo{
		SlideDimensions: SlideDimensions{
			Width:        w,
			Height:       h,
			WidthInches:  EMUToInch(w),
			HeightInches: EMUToInch(h),
			AspectRatio:  aspect,
		},
		SlideMasterCount:  pres.MasterCount,
		SlideLayoutsCount: pres.LayoutCount,
	}
}

// analyzeSlide composes per-shape results for one slide, flattens texts,
// and deduplicates the slide's colors and fonts.
func (a *Analyzer) analyzeSlide(slide *Slide, number int) *SlideResult {
	result := &SlideResult{
		SlideNumber: number,
		Layout:      slide.LayoutName,
		Background:  analyzeBackground(slide),
		Shapes:      make([]*ShapeResult, 0, len(slide.Shapes)),
		Texts:       []*TextInfo{},
		Images:      []*ShapeResult{},
		ShapeCount:  len(slide.Shapes),
	}

	colors := newStringSet()
	fonts := newStringSet()

	for idx, shape := range slide.Shapes {
		sr := a.analyzeShape(shape, idx)
		result.Shapes = append(result.Shapes, sr)

		if len(sr.Text) > 0 {
			result.Texts = append(result.Texts, sr.Text...)
			result.TextCount += len(sr.Text)
		}
		if sr.Type == "picture" {
			result.Images = append(result.Images, sr)
			result.ImageCount++
		}
		colors.addAll(sr.Colors)
		fonts.addAll(sr.Fonts)
	}

	result.Colors = colors.values()
	result.Fonts = fonts.values()
	return result
}

// analyzeBackground resolves a slide background to a flat color when one
// is present. Gradient and image backgrounds are reported as "unknown";
// detecting them is a known limitation, not attempted.
func analyzeBackground(slide *Slide) BackgroundInfo {
	info := BackgroundInfo{Type: "unknown"}
	if slide.Background == nil {
		return info
	}
	if hex, ok := HexOf(slide.Background.Fill); ok {
		info.Type = "solid_color"
		info.Color = hex
	}
	return info
}

// analyzeShape extracts one shape's classification, text runs, colors,
// fonts and, for pictures, the embedded image analysis. Every extraction
// step degrades independently so one bad attribute never hides the rest.
func (a *Analyzer) analyzeShape(shape Shape, index int) *ShapeResult {
	base := shape.Base()
	name := base.Name
	if name == "" {
		name = fmt.Sprintf("Shape_%d", index)
	}

	result := &ShapeResult{
		Index: index,
		Type:  shapeTypeTag(shape),
		Name:  name,
		Position: Position{
			Left:   base.Left,
			Top:    base.Top,
			Width:  base.Width,
			Height: base.Height,
		},
		Text: []*TextInfo{},
	}

	colors := newStringSet()
	fonts := newStringSet()

	for _, para := range paragraphsOf(shape) {
		if para == nil {
			continue
		}
		for _, run := range para.Runs {
			info := analyzeRun(run)
			if info == nil {
				continue
			}
			result.Text = append(result.Text, info)
			fonts.add(info.Font.Name)
			if info.Color != "" {
				colors.add(info.Color)
			}
		}
	}

	if hex, ok := HexOf(base.Fill); ok {
		colors.add(hex)
	}
	if hex, ok := HexOf(base.Line); ok {
		colors.add(hex)
	}
	if table, ok := shape.(*TableShape); ok {
		for _, row := range table.Rows {
			for _, cell := range row {
				if cell == nil {
					continue
				}
				if hex, ok := HexOf(cell.Fill); ok {
					colors.add(hex)
				}
			}
		}
	}

	if pic, ok := shape.(*PictureShape); ok {
		info := a.extractor.Extract(pic.Image.Data)
		info.FileName = pic.Image.FileName
		result.ImageInfo = info
		if info.Error == "" {
			colors.addAll(info.DominantColors)
		}
	}

	result.Colors = colors.values()
	result.Fonts = fonts.values()
	return result
}

// analyzeRun converts a model run to its report form. Runs that are
// empty after trimming are dropped. A run without an explicit color
// keeps Color empty; no default is synthesized for theme-inherited color.
func analyzeRun(run *TextRun) *TextInfo {
	if run == nil {
		return nil
	}
	content := strings.TrimSpace(run.Text)
	if content == "" {
		return nil
	}
	fontName := run.FontName
	if fontName == "" {
		fontName = "Unknown"
	}
	info := &TextInfo{
		Content: content,
		Font: FontInfo{
			Name:      fontName,
			Size:      run.Size,
			Bold:      run.Bold,
			Italic:    run.Italic,
			Underline: run.Underline,
		},
	}
	if hex, ok := HexOf(run.Color); ok {
		info.Color = hex
	}
	return info
}

// shapeTypeTag maps a shape to its report classification. Unrecognized
// native kinds are tagged rather than rejected so unfamiliar shapes
// never abort the pipeline.
func shapeTypeTag(shape Shape) string {
	if u, ok := shape.(*UnknownShape); ok {
		return fmt.Sprintf("unknown_type_%d", u.RawKind)
	}
	switch shape.Kind() {
	case KindTextBox:
		return "text_box"
	case KindAutoShape:
		return "auto_shape"
	case KindPlaceholder:
		return "placeholder"
	case KindPicture:
		return "picture"
	case KindTable:
		return "table"
	case KindLine:
		return "line"
	case KindGroup:
		return "group"
	case KindChart:
		return "chart"
	case KindMedia:
		return "media"
	case KindFreeform:
		return "freeform"
	case KindCallout:
		return "callout"
	default:
		return fmt.Sprintf("unknown_type_%d", int(shape.Kind()))
	}
}
