package decklens

import (
	"fmt"
	"strings"
)

// Validate checks the report against its structural invariants and
// returns an error describing all problems found, or nil if the report
// is consistent. Every report the analyzer produces should pass.
func (r *Report) Validate() error {
	var errs []string

	if r.GlobalAnalysis.TotalSlides != len(r.Slides) {
		errs = append(errs, fmt.Sprintf("total_slides %d does not match slide result count %d",
			r.GlobalAnalysis.TotalSlides, len(r.Slides)))
	}
	if len(r.GlobalAnalysis.SlideLayouts) != len(r.Slides) {
		errs = append(errs, fmt.Sprintf("slide_layouts has %d entries for %d slides",
			len(r.GlobalAnalysis.SlideLayouts), len(r.Slides)))
	}

	imageCount := 0
	for i, slide := range r.Slides {
		prefix := fmt.Sprintf("slide %d", i+1)
		if slide == nil {
			errs = append(errs, prefix+": result is nil")
			continue
		}
		if slide.SlideNumber != i+1 {
			errs = append(errs, fmt.Sprintf("%s: slide_number is %d, want contiguous numbering from 1",
				prefix, slide.SlideNumber))
		}
		errs = append(errs, validateSlideResult(slide, prefix)...)
		imageCount += slide.ImageCount
	}

	if r.GlobalAnalysis.ImageCount != imageCount {
		errs = append(errs, fmt.Sprintf("global image_count %d does not match per-slide sum %d",
			r.GlobalAnalysis.ImageCount, imageCount))
	}
	errs = append(errs, validateColorList(r.GlobalAnalysis.ColorPalette, "global color_palette")...)
	if dup := firstDuplicate(r.GlobalAnalysis.FontsUsed); dup != "" {
		errs = append(errs, "global fonts_used contains duplicate "+dup)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("report validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func validateSlideResult(s *SlideResult, prefix string) []string {
	var errs []string

	errs = append(errs, validateColorList(s.Colors, prefix+": colors")...)
	if dup := firstDuplicate(s.Fonts); dup != "" {
		errs = append(errs, prefix+": fonts contains duplicate "+dup)
	}
	if s.TextCount != len(s.Texts) {
		errs = append(errs, fmt.Sprintf("%s: text_count %d does not match texts length %d",
			prefix, s.TextCount, len(s.Texts)))
	}
	if s.ShapeCount != len(s.Shapes) {
		errs = append(errs, fmt.Sprintf("%s: shape_count %d does not match shapes length %d",
			prefix, s.ShapeCount, len(s.Shapes)))
	}

	pictures := 0
	for j, shape := range s.Shapes {
		sp := fmt.Sprintf("%s shape %d", prefix, j)
		if shape == nil {
			errs = append(errs, sp+": result is nil")
			continue
		}
		if shape.Index != j {
			errs = append(errs, fmt.Sprintf("%s: index is %d, want position %d", sp, shape.Index, j))
		}
		errs = append(errs, validateColorList(shape.Colors, sp+": colors")...)
		if shape.Type == "picture" {
			pictures++
		}
		// dominant palettes may repeat entries (degenerate images pad
		// to the fixed palette size), so only validity is checked
		if shape.ImageInfo != nil && shape.ImageInfo.Error == "" {
			for _, c := range shape.ImageInfo.DominantColors {
				if !IsHexColor(c) {
					errs = append(errs, sp+": dominant_colors contains invalid color "+c)
				}
			}
		}
	}
	if s.ImageCount != pictures {
		errs = append(errs, fmt.Sprintf("%s: image_count %d does not match picture shape count %d",
			prefix, s.ImageCount, pictures))
	}

	if s.Background.Type == "solid_color" && !IsHexColor(s.Background.Color) {
		errs = append(errs, prefix+": solid_color background has invalid color "+s.Background.Color)
	}

	return errs
}

func validateColorList(colors []string, what string) []string {
	var errs []string
	for _, c := range colors {
		if !IsHexColor(c) {
			errs = append(errs, what+" contains invalid color "+c)
		}
	}
	if dup := firstDuplicate(colors); dup != "" {
		errs = append(errs, what+" contains duplicate "+dup)
	}
	return errs
}

func firstDuplicate(values []string) string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
