package decklens

// Report is the full analysis result. It is a plain tree of primitive
// leaf values so it round-trips through JSON without loss.
type Report struct {
	PresentationInfo PresentationInfo `json:"presentation_info"`
	Slides           []*SlideResult   `json:"slides"`
	GlobalAnalysis   GlobalAnalysis   `json:"global_analysis"`
}

// PresentationInfo is the document-level metadata block.
type PresentationInfo struct {
	SlideDimensions   SlideDimensions `json:"slide_dimensions"`
	SlideMasterCount  int             `json:"slide_master_count"`
	SlideLayoutsCount int             `json:"slide_layouts_count"`
}

// SlideDimensions reports slide geometry in EMU and inches.
type SlideDimensions struct {
	Width        int64   `json:"width"`
	Height       int64   `json:"height"`
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	AspectRatio  float64 `json:"aspect_ratio"`
}

// GlobalAnalysis aggregates statistics across all slides.
type GlobalAnalysis struct {
	TotalSlides  int      `json:"total_slides"`
	ColorPalette []string `json:"color_palette"`
	FontsUsed    []string `json:"fonts_used"`
	ImageCount   int      `json:"image_count"`
	SlideLayouts []string `json:"slide_layouts"`
}

// SlideResult is the per-slide analysis.
type SlideResult struct {
	SlideNumber int            `json:"slide_number"`
	Layout      string         `json:"layout"`
	Background  BackgroundInfo `json:"background"`
	Shapes      []*ShapeResult `json:"shapes"`
	Texts       []*TextInfo    `json:"texts"`
	Images      []*ShapeResult `json:"images"`
	Colors      []string       `json:"colors"`
	Fonts       []string       `json:"fonts"`
	ImageCount  int            `json:"image_count"`
	TextCount   int            `json:"text_count"`
	ShapeCount  int            `json:"shape_count"`
}

// BackgroundInfo describes what could be determined about a slide
// background. Type is "solid_color" or "unknown".
type BackgroundInfo struct {
	Type     string `json:"type"`
	Color    string `json:"color,omitempty"`
	HasImage bool   `json:"has_image"`
	Gradient bool   `json:"gradient"`
}

// ShapeResult is the per-shape analysis.
type ShapeResult struct {
	Index     int            `json:"index"`
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Position  Position       `json:"position"`
	Text      []*TextInfo    `json:"text"`
	Colors    []string       `json:"colors"`
	Fonts     []string       `json:"fonts"`
	ImageInfo *ImageAnalysis `json:"image_info,omitempty"`
}

// Position is a shape bounding box in EMU.
type Position struct {
	Left   int64 `json:"left"`
	Top    int64 `json:"top"`
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// TextInfo is one extracted text run.
type TextInfo struct {
	Content string   `json:"content"`
	Font    FontInfo `json:"font"`
	Color   string   `json:"color,omitempty"`
}

// FontInfo describes a run's formatting. Size is in points and nil when
// unset; the style flags are tri-state (nil = unspecified).
type FontInfo struct {
	Name      string   `json:"name"`
	Size      *float64 `json:"size"`
	Bold      *bool    `json:"bold"`
	Italic    *bool    `json:"italic"`
	Underline *bool    `json:"underline"`
}

// ImageAnalysis is the result of analyzing one embedded image. When the
// image bytes cannot be decoded, Error is set and the remaining fields
// are zero; the enclosing shape and slide results stay complete.
type ImageAnalysis struct {
	Format         string   `json:"format,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	Size           [2]int   `json:"size"`
	FileName       string   `json:"filename,omitempty"`
	DominantColors []string `json:"dominant_colors"`
	AverageColor   string   `json:"average_color,omitempty"`
	Brightness     float64  `json:"brightness"`
	Base64         string   `json:"base64,omitempty"`
	Error          string   `json:"error,omitempty"`
}
