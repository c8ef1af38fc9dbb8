package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/decklens/decklens"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("decklens: ")

	outPath := flag.String("out", "", "write the JSON report to this file instead of stdout")
	insights := flag.Bool("insights", false, "include summarizer insights in the output")
	model := flag.String("model", "", "chat model for insights (default llama-3.1-8b-instant)")
	baseURL := flag.String("base-url", "", "OpenAI-compatible API base URL (default Groq)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: decklens [flags] deck.pptx\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	report, err := decklens.AnalyzeFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if err := report.Validate(); err != nil {
		log.Fatal(err)
	}

	var out any = report
	if *insights {
		out = struct {
			*decklens.Report
			Insights *decklens.Insights `json:"insights"`
		}{report, gatherInsights(report, *model, *baseURL)}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("encoding report: %v", err)
	}
	data = append(data, '\n')

	if *outPath == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("report written to %s", *outPath)
}

// gatherInsights tries the chat summarizer when an API key is present
// and falls back to local heuristics otherwise.
func gatherInsights(report *decklens.Report, model, baseURL string) *decklens.Insights {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return decklens.HeuristicInsights(report)
	}

	summarizer := decklens.NewChatSummarizer(decklens.SummarizerConfig{
		BaseURL: baseURL,
		Model:   model,
		APIKey:  apiKey,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	in, err := summarizer.Summarize(ctx, report, 0)
	if err != nil {
		log.Printf("summarizer unavailable, using heuristics: %v", err)
		return decklens.HeuristicInsights(report)
	}
	return in
}
