package decklens

// Presentation is the in-memory document tree handed to the analyzer.
// It is produced by the PPTX reader and never mutated afterwards.
type Presentation struct {
	// Slide dimensions in EMU.
	SlideWidth  int64
	SlideHeight int64

	MasterCount int
	LayoutCount int

	Slides []*Slide
}

// Slide holds one slide's content in document order.
type Slide struct {
	LayoutName string
	Background *Background
	Shapes     []Shape
}

// Background describes a slide background. Only solid fills are
// resolved; gradient and image backgrounds stay unclassified.
type Background struct {
	Fill *RGB // nil when the background is not a flat solid color
}

// ShapeKind discriminates the shape variants.
type ShapeKind int

const (
	KindTextBox ShapeKind = iota
	KindAutoShape
	KindPlaceholder
	KindPicture
	KindTable
	KindLine
	KindGroup
	KindChart
	KindMedia
	KindFreeform
	KindCallout
	KindUnknown
)

// Shape is implemented by every shape variant. Each variant carries only
// the fields relevant to its kind; only PictureShape holds image bytes.
type Shape interface {
	Kind() ShapeKind
	Base() *BaseShape
}

// BaseShape contains the properties common to all shapes: name,
// bounding box in EMU, and optional explicit fill/line colors
// (nil means the color is inherited from the theme or layout).
type BaseShape struct {
	Name   string
	Left   int64
	Top    int64
	Width  int64
	Height int64
	Fill   *RGB
	Line   *RGB
}

func (b *BaseShape) Base() *BaseShape { return b }

// Paragraph is an ordered list of text runs sharing one block of text.
type Paragraph struct {
	Runs []*TextRun
}

// TextRun is a contiguous span of text with one formatting configuration.
// Size, Bold, Italic, Underline and Color are nil when the run inherits
// the attribute rather than setting it explicitly.
type TextRun struct {
	Text      string
	FontName  string // "" when the run does not name a typeface
	Size      *float64
	Bold      *bool
	Italic    *bool
	Underline *bool
	Color     *RGB
}

// TextBoxShape is an explicit text box (cNvSpPr txBox="1").
type TextBoxShape struct {
	BaseShape
	Paragraphs []*Paragraph
}

func (s *TextBoxShape) Kind() ShapeKind { return KindTextBox }

// AutoShapeShape is a preset-geometry shape (rectangle, ellipse, ...)
// that may carry text.
type AutoShapeShape struct {
	BaseShape
	Preset     string // prstGeom value, e.g. "rect", "ellipse"
	Paragraphs []*Paragraph
}

func (s *AutoShapeShape) Kind() ShapeKind { return KindAutoShape }

// PlaceholderShape is a layout-bound shape (title, body, footer, ...).
type PlaceholderShape struct {
	BaseShape
	PlaceholderType string // ph type attribute: "title", "body", ...
	Paragraphs      []*Paragraph
}

func (s *PlaceholderShape) Kind() ShapeKind { return KindPlaceholder }

// FreeformShape is a shape with custom geometry (custGeom).
type FreeformShape struct {
	BaseShape
	Paragraphs []*Paragraph
}

func (s *FreeformShape) Kind() ShapeKind { return KindFreeform }

// CalloutShape is an auto shape using one of the callout preset geometries.
type CalloutShape struct {
	BaseShape
	Preset     string
	Paragraphs []*Paragraph
}

func (s *CalloutShape) Kind() ShapeKind { return KindCallout }

// PictureShape is a raster image placed on a slide.
type PictureShape struct {
	BaseShape
	Image ImageRef
}

func (s *PictureShape) Kind() ShapeKind { return KindPicture }

// ImageRef carries the raw bytes of an embedded image.
type ImageRef struct {
	Data     []byte
	MimeType string
	FileName string // media part name inside the container
}

// MediaShape is a video or audio frame. OOXML represents these as
// pictures with a media link; the reader separates them so picture
// statistics only count true raster images.
type MediaShape struct {
	BaseShape
}

func (s *MediaShape) Kind() ShapeKind { return KindMedia }

// LineShape is a connector (cxnSp).
type LineShape struct {
	BaseShape
}

func (s *LineShape) Kind() ShapeKind { return KindLine }

// TableShape is a graphic frame holding a table.
type TableShape struct {
	BaseShape
	Rows [][]*TableCell
}

func (s *TableShape) Kind() ShapeKind { return KindTable }

// TableCell holds a cell's text and optional explicit fill.
type TableCell struct {
	Paragraphs []*Paragraph
	Fill       *RGB
}

// ChartShape is a graphic frame holding a chart. The chart definition
// itself is not analyzed.
type ChartShape struct {
	BaseShape
}

func (s *ChartShape) Kind() ShapeKind { return KindChart }

// GroupShape is a container of child shapes.
type GroupShape struct {
	BaseShape
	Shapes []Shape
}

func (s *GroupShape) Kind() ShapeKind { return KindGroup }

// UnknownShape stands in for shape elements the reader does not
// recognize. RawKind preserves the native type tag so the analyzer can
// report it without aborting.
type UnknownShape struct {
	BaseShape
	RawKind int
}

func (s *UnknownShape) Kind() ShapeKind { return KindUnknown }

// paragraphsOf returns the text paragraphs of a shape, or nil for shape
// kinds that carry no text body.
func paragraphsOf(s Shape) []*Paragraph {
	switch v := s.(type) {
	case *TextBoxShape:
		return v.Paragraphs
	case *AutoShapeShape:
		return v.Paragraphs
	case *PlaceholderShape:
		return v.Paragraphs
	case *FreeformShape:
		return v.Paragraphs
	case *CalloutShape:
		return v.Paragraphs
	case *TableShape:
		var paras []*Paragraph
		for _, row := range v.Rows {
			for _, cell := range row {
				if cell != nil {
					paras = append(paras, cell.Paragraphs...)
				}
			}
		}
		return paras
	default:
		return nil
	}
}
