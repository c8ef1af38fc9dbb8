package decklens

import (
	"strings"
	"testing"
)

func validReport() *Report {
	return &Report{
		Slides: []*SlideResult{
			{
				SlideNumber: 1,
				Layout:      "Blank",
				Background:  BackgroundInfo{Type: "unknown"},
				Shapes: []*ShapeResult{
					{Index: 0, Type: "text_box", Name: "A", Colors: []string{"#000000"}},
				},
				Texts:      []*TextInfo{{Content: "x", Font: FontInfo{Name: "Arial"}}},
				Colors:     []string{"#000000"},
				Fonts:      []string{"Arial"},
				TextCount:  1,
				ShapeCount: 1,
			},
		},
		GlobalAnalysis: GlobalAnalysis{
			TotalSlides:  1,
			ColorPalette: []string{"#000000"},
			FontsUsed:    []string{"Arial"},
			SlideLayouts: []string{"Blank"},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validReport().Validate(); err != nil {
		t.Fatalf("Validate rejected a consistent report: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		poke func(*Report)
		want string
	}{
		{
			"slide count mismatch",
			func(r *Report) { r.GlobalAnalysis.TotalSlides = 3 },
			"total_slides",
		},
		{
			"layout list length",
			func(r *Report) { r.GlobalAnalysis.SlideLayouts = nil },
			"slide_layouts",
		},
		{
			"non-contiguous numbering",
			func(r *Report) { r.Slides[0].SlideNumber = 7 },
			"slide_number",
		},
		{
			"invalid color",
			func(r *Report) { r.Slides[0].Colors = []string{"red"} },
			"invalid color",
		},
		{
			"duplicate color",
			func(r *Report) { r.Slides[0].Colors = []string{"#000000", "#000000"} },
			"duplicate",
		},
		{
			"text count mismatch",
			func(r *Report) { r.Slides[0].TextCount = 5 },
			"text_count",
		},
		{
			"shape count mismatch",
			func(r *Report) { r.Slides[0].ShapeCount = 0 },
			"shape_count",
		},
		{
			"shape index mismatch",
			func(r *Report) { r.Slides[0].Shapes[0].Index = 9 },
			"index",
		},
		{
			"image count mismatch",
			func(r *Report) { r.Slides[0].ImageCount = 1 },
			"image_count",
		},
		{
			"global image count mismatch",
			func(r *Report) { r.GlobalAnalysis.ImageCount = 2 },
			"image_count",
		},
		{
			"bad background color",
			func(r *Report) {
				r.Slides[0].Background = BackgroundInfo{Type: "solid_color", Color: "white"}
			},
			"background",
		},
		{
			"duplicate font",
			func(r *Report) { r.GlobalAnalysis.FontsUsed = []string{"Arial", "Arial"} },
			"fonts_used",
		},
	}

	for _, c := range cases {
		r := validReport()
		c.poke(r)
		err := r.Validate()
		if err == nil {
			t.Errorf("%s: Validate accepted a broken report", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	r := validReport()
	r.GlobalAnalysis.TotalSlides = 2
	r.Slides[0].TextCount = 9
	err := r.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "total_slides") || !strings.Contains(msg, "text_count") {
		t.Errorf("error does not report both problems: %q", msg)
	}
}
