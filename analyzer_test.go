package decklens

import (
	"encoding/json"
	"image/color"
	"reflect"
	"strings"
	"testing"
)

// helper: a paragraph with a single run
func runPara(run *TextRun) *Paragraph {
	return &Paragraph{Runs: []*TextRun{run}}
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// helper: a presentation with one text slide
func textPresentation() *Presentation {
	return &Presentation{
		SlideWidth:  Inch(13.333),
		SlideHeight: Inch(7.5),
		MasterCount: 1,
		LayoutCount: 11,
		Slides: []*Slide{
			{
				LayoutName: "Title Slide",
				Background: &Background{Fill: &RGB{255, 255, 255}},
				Shapes: []Shape{
					&TextBoxShape{
						BaseShape: BaseShape{
							Name: "Title 1",
							Left: Inch(1), Top: Inch(1),
							Width: Inch(8), Height: Inch(1.5),
						},
						Paragraphs: []*Paragraph{
							runPara(&TextRun{
								Text:     "Hello",
								FontName: "Arial",
								Size:     floatPtr(12),
								Bold:     boolPtr(true),
								Color:    &RGB{0, 0, 0},
							}),
						},
					},
				},
			},
		},
	}
}

func TestAnalyzeTextSlide(t *testing.T) {
	report := Analyze(textPresentation())

	info := report.PresentationInfo
	if info.SlideMasterCount != 1 || info.SlideLayoutsCount != 11 {
		t.Errorf("master/layout counts = %d/%d, want 1/11",
			info.SlideMasterCount, info.SlideLayoutsCount)
	}
	if got := info.SlideDimensions.AspectRatio; got != 1.78 {
		t.Errorf("aspect ratio = %v, want 1.78", got)
	}
	if got := info.SlideDimensions.WidthInches; got < 13.3 || got > 13.4 {
		t.Errorf("width inches = %v, want ~13.333", got)
	}

	if len(report.Slides) != 1 {
		t.Fatalf("got %d slides, want 1", len(report.Slides))
	}
	slide := report.Slides[0]
	if slide.SlideNumber != 1 {
		t.Errorf("slide number = %d, want 1", slide.SlideNumber)
	}
	if slide.Layout != "Title Slide" {
		t.Errorf("layout = %q", slide.Layout)
	}
	if slide.Background.Type != "solid_color" || slide.Background.Color != "#ffffff" {
		t.Errorf("background = %+v, want solid_color #ffffff", slide.Background)
	}
	if slide.ShapeCount != 1 || slide.TextCount != 1 || slide.ImageCount != 0 {
		t.Errorf("counts shape/text/image = %d/%d/%d, want 1/1/0",
			slide.ShapeCount, slide.TextCount, slide.ImageCount)
	}

	shape := slide.Shapes[0]
	if shape.Type != "text_box" || shape.Name != "Title 1" {
		t.Errorf("shape type/name = %q/%q", shape.Type, shape.Name)
	}
	if shape.Position.Left != Inch(1) || shape.Position.Height != Inch(1.5) {
		t.Errorf("position = %+v", shape.Position)
	}
	if len(shape.Text) != 1 {
		t.Fatalf("got %d text runs, want 1", len(shape.Text))
	}
	text := shape.Text[0]
	if text.Content != "Hello" || text.Color != "#000000" {
		t.Errorf("text = %+v", text)
	}
	if text.Font.Name != "Arial" || text.Font.Size == nil || *text.Font.Size != 12 {
		t.Errorf("font = %+v", text.Font)
	}
	if text.Font.Bold == nil || !*text.Font.Bold {
		t.Error("bold flag lost")
	}
	if text.Font.Italic != nil || text.Font.Underline != nil {
		t.Error("unset style flags should stay nil")
	}

	g := report.GlobalAnalysis
	if g.TotalSlides != 1 || g.ImageCount != 0 {
		t.Errorf("global = %+v", g)
	}
	if !reflect.DeepEqual(g.ColorPalette, []string{"#000000"}) {
		t.Errorf("color palette = %v", g.ColorPalette)
	}
	if !reflect.DeepEqual(g.FontsUsed, []string{"Arial"}) {
		t.Errorf("fonts used = %v", g.FontsUsed)
	}
	if !reflect.DeepEqual(g.SlideLayouts, []string{"Title Slide"}) {
		t.Errorf("slide layouts = %v", g.SlideLayouts)
	}

	if err := report.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	pres := textPresentation()
	first, err := json.Marshal(Analyze(pres))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Analyze(pres))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("repeated analysis produced different reports")
	}
}

func TestAnalyzeDedupsColorsAndFonts(t *testing.T) {
	black := &RGB{0, 0, 0}
	slide := &Slide{
		LayoutName: "Blank",
		Shapes: []Shape{
			&TextBoxShape{
				BaseShape: BaseShape{Name: "A", Fill: black},
				Paragraphs: []*Paragraph{
					runPara(&TextRun{Text: "one", FontName: "Arial", Color: black}),
					runPara(&TextRun{Text: "two", FontName: "Arial", Color: black}),
				},
			},
			&AutoShapeShape{
				BaseShape: BaseShape{Name: "B", Fill: black, Line: &RGB{255, 0, 0}},
			},
		},
	}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	sr := report.Slides[0]
	if !reflect.DeepEqual(sr.Colors, []string{"#000000", "#ff0000"}) {
		t.Errorf("slide colors = %v, want deduped [#000000 #ff0000]", sr.Colors)
	}
	if !reflect.DeepEqual(sr.Fonts, []string{"Arial"}) {
		t.Errorf("slide fonts = %v", sr.Fonts)
	}
	if sr.TextCount != 2 {
		t.Errorf("text count = %d, want 2", sr.TextCount)
	}
}

func TestAnalyzeDropsEmptyRuns(t *testing.T) {
	slide := &Slide{
		Shapes: []Shape{
			&TextBoxShape{
				BaseShape: BaseShape{Name: "Empty"},
				Paragraphs: []*Paragraph{
					runPara(&TextRun{Text: "   "}),
					runPara(&TextRun{Text: "\t\n"}),
					runPara(&TextRun{Text: "  kept  "}),
				},
			},
		},
	}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	texts := report.Slides[0].Texts
	if len(texts) != 1 {
		t.Fatalf("got %d texts, want 1", len(texts))
	}
	if texts[0].Content != "kept" {
		t.Errorf("content = %q, want %q (trimmed)", texts[0].Content, "kept")
	}
	if texts[0].Font.Name != "Unknown" {
		t.Errorf("font name = %q, want Unknown", texts[0].Font.Name)
	}
}

func TestAnalyzeUnnamedShape(t *testing.T) {
	slide := &Slide{Shapes: []Shape{
		&AutoShapeShape{},
		&AutoShapeShape{},
	}}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	if got := report.Slides[0].Shapes[0].Name; got != "Shape_0" {
		t.Errorf("name = %q, want Shape_0", got)
	}
	if got := report.Slides[0].Shapes[1].Name; got != "Shape_1" {
		t.Errorf("name = %q, want Shape_1", got)
	}
}

func TestAnalyzeUnknownShapeTag(t *testing.T) {
	slide := &Slide{Shapes: []Shape{
		&UnknownShape{BaseShape: BaseShape{Name: "Mystery"}, RawKind: 42},
	}}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	if got := report.Slides[0].Shapes[0].Type; got != "unknown_type_42" {
		t.Errorf("type tag = %q, want unknown_type_42", got)
	}
	if err := report.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestAnalyzePictures(t *testing.T) {
	green := color.RGBA{G: 220, A: 255}
	slide := &Slide{Shapes: []Shape{
		&PictureShape{
			BaseShape: BaseShape{Name: "Picture 1"},
			Image: ImageRef{
				Data:     stripePNG(t, 8, 8, green),
				MimeType: "image/png",
				FileName: "image1.png",
			},
		},
		&MediaShape{BaseShape: BaseShape{Name: "Video 1"}},
	}}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	sr := report.Slides[0]
	// the media frame is not a raster image
	if sr.ImageCount != 1 || len(sr.Images) != 1 {
		t.Fatalf("image count = %d (%d entries), want 1", sr.ImageCount, len(sr.Images))
	}
	if report.GlobalAnalysis.ImageCount != 1 {
		t.Errorf("global image count = %d, want 1", report.GlobalAnalysis.ImageCount)
	}

	pic := sr.Shapes[0]
	if pic.Type != "picture" {
		t.Errorf("type = %q, want picture", pic.Type)
	}
	if pic.ImageInfo == nil {
		t.Fatal("missing image info")
	}
	if pic.ImageInfo.FileName != "image1.png" {
		t.Errorf("filename = %q", pic.ImageInfo.FileName)
	}
	if pic.ImageInfo.AverageColor != "#00dc00" {
		t.Errorf("average color = %q, want #00dc00", pic.ImageInfo.AverageColor)
	}
	// dominant colors feed the shape and slide palettes
	if len(pic.Colors) == 0 {
		t.Error("picture shape has no colors")
	}
	if len(sr.Colors) == 0 {
		t.Error("slide palette missing picture colors")
	}

	if sr.Shapes[1].Type != "media" {
		t.Errorf("media type = %q", sr.Shapes[1].Type)
	}
}

func TestAnalyzeBrokenImageDegrades(t *testing.T) {
	slide := &Slide{Shapes: []Shape{
		&PictureShape{
			BaseShape: BaseShape{Name: "Corrupt"},
			Image:     ImageRef{Data: []byte("garbage"), FileName: "bad.png"},
		},
	}}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	sr := report.Slides[0]
	// still counted as an image; the failure is confined to image_info
	if sr.ImageCount != 1 {
		t.Errorf("image count = %d, want 1", sr.ImageCount)
	}
	info := sr.Shapes[0].ImageInfo
	if info == nil || info.Error == "" {
		t.Fatalf("expected error marker, got %+v", info)
	}
	if len(sr.Shapes[0].Colors) != 0 {
		t.Errorf("colors from failed decode = %v, want none", sr.Shapes[0].Colors)
	}
	if err := report.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestAnalyzeTableCells(t *testing.T) {
	blue := &RGB{0, 0, 255}
	slide := &Slide{Shapes: []Shape{
		&TableShape{
			BaseShape: BaseShape{Name: "Table 1"},
			Rows: [][]*TableCell{
				{
					{Paragraphs: []*Paragraph{runPara(&TextRun{Text: "cell", FontName: "Calibri"})}, Fill: blue},
					{Fill: blue},
				},
			},
		},
	}}
	report := Analyze(&Presentation{Slides: []*Slide{slide}})

	sr := report.Slides[0]
	if sr.Shapes[0].Type != "table" {
		t.Errorf("type = %q", sr.Shapes[0].Type)
	}
	if sr.TextCount != 1 || sr.Texts[0].Content != "cell" {
		t.Errorf("table text not flattened: %+v", sr.Texts)
	}
	if !reflect.DeepEqual(sr.Colors, []string{"#0000ff"}) {
		t.Errorf("cell fills = %v, want [#0000ff]", sr.Colors)
	}
}

func TestAnalyzeEmptySlideJSON(t *testing.T) {
	report := Analyze(&Presentation{Slides: []*Slide{{}}})
	data, err := json.Marshal(report.Slides[0])
	if err != nil {
		t.Fatal(err)
	}
	// empty collections serialize as arrays, never null
	for _, key := range []string{`"shapes":[]`, `"texts":[]`, `"images":[]`, `"colors":[]`, `"fonts":[]`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized slide missing %s: %s", key, data)
		}
	}
}
