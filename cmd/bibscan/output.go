package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RootResult reports what a command did with one root directory.
type RootResult struct {
	Root    string `json:"root"`
	Output  string `json:"output,omitempty"`
	Count   int    `json:"count"`
	Failed  int    `json:"failed,omitempty"`
	Skipped string `json:"skipped,omitempty"` // reason the root was not processed
}

// RunResponse is the response of parse and bibtex.
type RunResponse struct {
	Roots   []RootResult `json:"roots"`
	Written int          `json:"written"`
}

func newRunResponse() RunResponse {
	return RunResponse{Roots: []RootResult{}}
}

func (r *RunResponse) add(res RootResult) {
	r.Roots = append(r.Roots, res)
	if res.Output != "" {
		r.Written++
	}
}

// print writes the response as JSON, or one line per root with --human.
func (r RunResponse) print(noun string) {
	if !humanOutput {
		outputJSON(r)
		return
	}
	for _, res := range r.Roots {
		switch {
		case res.Skipped != "":
			outputHuman("[WARN] %s: %s\n", res.Root, res.Skipped)
		case res.Failed > 0:
			outputHuman("[OK] Wrote: %s (%s=%d, failed=%d)\n", res.Output, noun, res.Count, res.Failed)
		default:
			outputHuman("[OK] Wrote: %s (%s=%d)\n", res.Output, noun, res.Count)
		}
	}
}
