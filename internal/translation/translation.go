// Package translation builds translation commands: units of work that send
// line batches to the remote translation provider and record the resulting
// model updates.
package translation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/subtext/internal/provider"
)

// Line is one source line to translate, addressed by its index in the
// working document.
type Line struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Request describes one batch of lines to translate.
type Request struct {
	Lines          []Line  `json:"lines"`
	SourceLanguage string  `json:"source_language,omitempty"`
	TargetLanguage string  `json:"target_language"`
	Temperature    float64 `json:"temperature,omitempty"`
}

// linePath returns the model path a line's translation is written to.
func linePath(index int) string {
	return fmt.Sprintf("lines/%d/translation", index)
}

// buildRequest converts a translation request into the provider's request
// form. Both the conversational and instruct shapes are populated; the
// transport consumes whichever its model supports.
func buildRequest(req *Request) *provider.Request {
	var sb strings.Builder
	if req.SourceLanguage != "" {
		fmt.Fprintf(&sb, "Translate these lines from %s to %s.", req.SourceLanguage, req.TargetLanguage)
	} else {
		fmt.Fprintf(&sb, "Translate these lines to %s.", req.TargetLanguage)
	}
	sb.WriteString(" Reply with one translated line per input line, in the same order, with no numbering or commentary.\n\n")

	instruction := sb.String()

	var lines strings.Builder
	for i, line := range req.Lines {
		if i > 0 {
			lines.WriteByte('\n')
		}
		lines.WriteString(line.Text)
	}

	return &provider.Request{
		Prompt:      instruction + lines.String(),
		Temperature: req.Temperature,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: strings.TrimSpace(instruction)},
			{Role: provider.RoleUser, Content: lines.String()},
		},
	}
}

// parseResponse pairs the provider's response text with the request lines.
// The provider replies with one translated line per input line; a count
// mismatch is a failed translation, not a malformed payload.
func parseResponse(req *Request, text string) ([]string, error) {
	translated := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(translated) != len(req.Lines) {
		return nil, fmt.Errorf("expected %d translated lines, got %d", len(req.Lines), len(translated))
	}
	return translated, nil
}
