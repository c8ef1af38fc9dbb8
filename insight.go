package decklens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Insights is the downstream summarizer's view of a report: free text
// plus best-effort numeric scores. The report itself never depends on a
// summarizer being reachable; heuristic fields are always filled.
type Insights struct {
	RawAnalysis          string                `json:"raw_analysis,omitempty"`
	PresentationTopic    string                `json:"presentation_topic,omitempty"`
	DesignScore          int                   `json:"design_score"`
	ContentScore         int                   `json:"content_score"`
	ProfessionalScore    int                   `json:"professional_score"`
	SlideClassifications []SlideClassification `json:"slide_classifications"`
	KeyInsights          []string              `json:"key_insights"`
	Recommendations      []string              `json:"recommendations"`
	ColorAnalysis        ColorAnalysis         `json:"color_analysis"`
	Summary              InsightSummary        `json:"summary"`
}

// SlideClassification labels one slide by its content profile.
type SlideClassification struct {
	SlideNumber    int    `json:"slide_number"`
	Classification string `json:"classification"`
	Layout         string `json:"layout"`
}

// ColorAnalysis summarizes the global color palette.
type ColorAnalysis struct {
	TotalColors    int      `json:"total_colors"`
	UniqueColors   int      `json:"unique_colors"`
	DominantColors []string `json:"dominant_colors"`
	Diversity      string   `json:"color_diversity"`
}

// InsightSummary is the compact headline block.
type InsightSummary struct {
	TotalSlides      int    `json:"total_slides"`
	TotalImages      int    `json:"total_images"`
	UniqueColors     int    `json:"unique_colors"`
	UniqueFonts      int    `json:"unique_fonts"`
	PresentationType string `json:"presentation_type"`
}

// Summarizer produces insights from a report, optionally bounded to the
// first slideLimit slides.
type Summarizer interface {
	Summarize(ctx context.Context, report *Report, slideLimit int) (*Insights, error)
}

// SummarizerConfig configures a ChatSummarizer. Zero fields fall back
// to Groq's OpenAI-compatible endpoint and a small default model.
type SummarizerConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// MaxSampleSlides bounds how many slide results go into the prompt.
	MaxSampleSlides int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// ChatSummarizer calls an OpenAI-compatible chat completion endpoint
// with a structured analysis prompt and scrapes scores from the reply.
type ChatSummarizer struct {
	cfg    SummarizerConfig
	client *http.Client
}

// NewChatSummarizer creates a summarizer client.
func NewChatSummarizer(cfg SummarizerConfig) *ChatSummarizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxSampleSlides <= 0 {
		cfg.MaxSampleSlides = 3
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ChatSummarizer{cfg: cfg, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends the analysis prompt and structures the reply. The
// heuristic fields (classifications, summary, color analysis) are
// computed locally, so a transport failure loses only the free text.
func (s *ChatSummarizer) Summarize(ctx context.Context, report *Report, slideLimit int) (*Insights, error) {
	if slideLimit <= 0 || slideLimit > s.cfg.MaxSampleSlides {
		slideLimit = s.cfg.MaxSampleSlides
	}
	prompt, err := analysisPrompt(report, slideLimit)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	body := chatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   2000,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(s.cfg.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summarizer request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading summarizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("summarizer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding summarizer response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no choices in summarizer response")
	}

	return structureAnalysis(parsed.Choices[0].Message.Content, report), nil
}

// promptSummary is the bounded report overview embedded in the prompt.
type promptSummary struct {
	TotalSlides  int             `json:"total_slides"`
	TotalImages  int             `json:"total_images"`
	ColorPalette []string        `json:"color_palette"`
	FontsUsed    []string        `json:"fonts_used"`
	SlideLayouts []string        `json:"slide_layouts"`
	Dimensions   SlideDimensions `json:"presentation_dimensions"`
}

func analysisPrompt(report *Report, slideLimit int) (string, error) {
	g := report.GlobalAnalysis
	summary := promptSummary{
		TotalSlides:  g.TotalSlides,
		TotalImages:  g.ImageCount,
		ColorPalette: capStrings(g.ColorPalette, 10),
		FontsUsed:    capStrings(g.FontsUsed, 10),
		SlideLayouts: uniqueStrings(g.SlideLayouts),
		Dimensions:   report.PresentationInfo.SlideDimensions,
	}
	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}

	sample := report.Slides
	if len(sample) > slideLimit {
		sample = sample[:slideLimit]
	}
	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("You are an expert presentation analyst. Analyze this presentation data and provide comprehensive insights.\n\n")
	sb.WriteString("PRESENTATION OVERVIEW:\n")
	sb.Write(summaryJSON)
	sb.WriteString("\n\nSAMPLE SLIDES DATA:\n")
	sb.Write(sampleJSON)
	sb.WriteString("\n\nPlease provide a detailed analysis covering:\n\n")
	sb.WriteString("1. PRESENTATION PURPOSE & TOPIC\n")
	sb.WriteString("2. DESIGN ANALYSIS (color scheme, typography, visual hierarchy)\n")
	sb.WriteString("3. CONTENT STRUCTURE\n")
	sb.WriteString("4. VISUAL ELEMENTS\n")
	sb.WriteString("5. RECOMMENDATIONS\n")
	sb.WriteString("6. OVERALL SCORE:\n   - Design: X/10\n   - Content: X/10\n   - Professional Quality: X/10\n\n")
	sb.WriteString("Format your response in clear sections with specific, actionable insights.\n")
	return sb.String(), nil
}

// structureAnalysis combines the model's free text with the locally
// computed heuristics.
func structureAnalysis(text string, report *Report) *Insights {
	in := HeuristicInsights(report)
	in.RawAnalysis = text
	in.PresentationTopic = extractTopic(text)
	in.DesignScore = extractScore(text, "Design")
	in.ContentScore = extractScore(text, "Content")
	in.ProfessionalScore = extractScore(text, "Professional Quality")
	in.KeyInsights = extractKeyInsights(text)
	in.Recommendations = extractRecommendations(text)
	return in
}

// HeuristicInsights derives insights from the report alone, with no
// network involved. This is the degraded mode when no summarizer is
// configured or reachable.
func HeuristicInsights(report *Report) *Insights {
	g := report.GlobalAnalysis
	uniqueColors := len(uniqueStrings(g.ColorPalette))
	return &Insights{
		SlideClassifications: classifySlides(report),
		KeyInsights:          []string{},
		Recommendations:      []string{},
		ColorAnalysis:        analyzeColorPalette(g.ColorPalette),
		Summary: InsightSummary{
			TotalSlides:      g.TotalSlides,
			TotalImages:      g.ImageCount,
			UniqueColors:     uniqueColors,
			UniqueFonts:      len(uniqueStrings(g.FontsUsed)),
			PresentationType: presentationType(g.TotalSlides, g.ImageCount, uniqueColors),
		},
	}
}

// classifySlides labels slides with simple content-profile heuristics.
func classifySlides(report *Report) []SlideClassification {
	total := report.GlobalAnalysis.TotalSlides
	out := make([]SlideClassification, 0, len(report.Slides))
	for _, slide := range report.Slides {
		class := "Content"
		switch {
		case slide.SlideNumber == 1:
			class = "Title"
		case slide.SlideNumber == total:
			class = "Thank You / Conclusion"
		case slide.TextCount == 0 && slide.ImageCount > 0:
			class = "Image-only"
		case slide.TextCount > 5:
			class = "Content-heavy"
		case slide.ImageCount > 2:
			class = "Visual-heavy"
		}
		out = append(out, SlideClassification{
			SlideNumber:    slide.SlideNumber,
			Classification: class,
			Layout:         slide.Layout,
		})
	}
	return out
}

func presentationType(totalSlides, totalImages, uniqueColors int) string {
	switch {
	case totalSlides < 5 && totalImages == 0:
		return "Template/Skeleton"
	case totalImages > 0 && uniqueColors > 3:
		return "Complete Presentation"
	default:
		return "Draft/In Progress"
	}
}

func analyzeColorPalette(palette []string) ColorAnalysis {
	unique := uniqueStrings(palette)
	diversity := "Low"
	if len(unique) > 10 {
		diversity = "High"
	} else if len(unique) > 5 {
		diversity = "Medium"
	}
	return ColorAnalysis{
		TotalColors:    len(palette),
		UniqueColors:   len(unique),
		DominantColors: capStrings(unique, 5),
		Diversity:      diversity,
	}
}

// extractScore scrapes "<label>: N/10" from free text, case-insensitive.
// Missing scores report 0.
func extractScore(text, label string) int {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[:\s]*(\d+)\s*/\s*10`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func extractTopic(text string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "about") || strings.Contains(lower, "topic") {
			return strings.TrimSpace(line)
		}
	}
	return "Topic not clearly identified"
}

// extractKeyInsights collects bulleted lines under their section
// headings, capped to the ten most prominent.
func extractKeyInsights(text string) []string {
	insights := []string{}
	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasSuffix(line, ":") || line == strings.ToUpper(line) && hasLetter(line):
			section = line
		case strings.HasPrefix(line, "-") && section != "":
			insights = append(insights, section+" "+strings.TrimSpace(line[1:]))
		}
		if len(insights) == 10 {
			break
		}
	}
	return insights
}

// extractRecommendations collects the bullets directly under the
// recommendations heading; the next non-bullet line ends the section.
func extractRecommendations(text string) []string {
	recs := []string{}
	active := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(strings.ToLower(line), "recommendation") {
			active = true
			continue
		}
		if !active || line == "" {
			continue
		}
		if !strings.HasPrefix(line, "-") {
			break
		}
		recs = append(recs, strings.TrimSpace(line[1:]))
	}
	return recs
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return true
		}
	}
	return false
}

func capStrings(values []string, n int) []string {
	if len(values) <= n {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}

func uniqueStrings(values []string) []string {
	set := newStringSet()
	set.addAll(values)
	return set.values()
}
