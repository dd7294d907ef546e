// Package chat extracts conversations from exported AI chat logs.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/heuristic"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Formats recorded in the "format" metadata key.
const (
	FormatList     = "list"
	FormatMessages = "messages"
	FormatText     = "text"
)

// turn is one message in a conversation.
type turn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Extractor handles chat logs.
type Extractor struct{}

// New creates a chat log extractor.
func New() *Extractor {
	return &Extractor{}
}

// Kind returns the source kind this extractor handles.
func (e *Extractor) Kind() domain.SourceKind {
	return domain.KindAIChat
}

// Extract parses the chat log at path. Logs that are not a list of turns
// or an object with a "messages" list are treated as flat text.
func (e *Extractor) Extract(_ context.Context, path string) (domain.Extraction, error) {
	result := domain.NewExtraction()
	result.Metadata["filename"] = filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, filepath.Base(path), err)
	}

	text, format, turns := Format(data)
	result.RawText = text
	result.Metadata["format"] = format
	result.Metadata["turns"] = turns
	result.Tags = heuristic.Tags(text)
	result.Tasks = heuristic.Tasks(text)
	return result, nil
}

// Format renders a chat log as "role: content" blocks separated by blank
// lines. It returns the text, the detected format and the number of turns.
func Format(data []byte) (string, string, int) {
	turns, format, ok := decode(data)
	if !ok {
		return string(data), FormatText, 0
	}

	var b strings.Builder
	count := 0
	for _, t := range turns {
		if t.Role == "" || len(t.Content) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n\n", t.Role, contentText(t.Content))
		count++
	}
	return b.String(), format, count
}

func decode(data []byte) ([]turn, string, bool) {
	var list []turn
	if err := json.Unmarshal(data, &list); err == nil {
		return list, FormatList, true
	}

	var wrapped struct {
		Messages []turn `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Messages != nil {
		return wrapped.Messages, FormatMessages, true
	}
	return nil, FormatText, false
}

// contentText flattens a message body. Strings are used as-is; arrays of
// content parts contribute their "text" fields; anything else is kept as
// JSON.
func contentText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	return string(raw)
}
