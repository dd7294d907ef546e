package domain

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
)

// SourceKind is the closed set of file kinds the pipeline understands.
// Every kind has exactly one extractor.
type SourceKind string

// Available source kinds.
const (
	KindImage    SourceKind = "image"
	KindPDF      SourceKind = "pdf"
	KindDocument SourceKind = "document"
	KindWebClip  SourceKind = "web_clip"
	KindURL      SourceKind = "url"
	KindAIChat   SourceKind = "ai_chat"
	KindUnknown  SourceKind = "unknown"
)

// AllKinds returns every source kind in a stable order.
func AllKinds() []SourceKind {
	return []SourceKind{
		KindImage, KindPDF, KindDocument, KindWebClip, KindURL, KindAIChat, KindUnknown,
	}
}

// kindByExtension is the authoritative extension table.
var kindByExtension = map[string]SourceKind{
	".jpg":    KindImage,
	".jpeg":   KindImage,
	".png":    KindImage,
	".gif":    KindImage,
	".bmp":    KindImage,
	".pdf":    KindPDF,
	".txt":    KindDocument,
	".md":     KindDocument,
	".rtf":    KindDocument,
	".doc":    KindDocument,
	".docx":   KindDocument,
	".html":   KindWebClip,
	".htm":    KindWebClip,
	".url":    KindURL,
	".webloc": KindURL,
}

// IsValid returns true if the kind is one of the known kinds.
func (k SourceKind) IsValid() bool {
	switch k {
	case KindImage, KindPDF, KindDocument, KindWebClip, KindURL, KindAIChat, KindUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// IsVisual returns true for kinds whose text may be handwritten.
func (k SourceKind) IsVisual() bool {
	return k == KindImage || k == KindPDF
}

// DetectKind determines the source kind from the file extension.
// JSON files are chat logs only when their name mentions "chat".
func DetectKind(path string) SourceKind {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	if ext == ".json" && strings.Contains(strings.ToLower(filepath.Base(path)), "chat") {
		return KindAIChat
	}
	return KindUnknown
}

// IsAmbiguous reports whether the extension alone cannot settle the kind.
func IsAmbiguous(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return true
	}
	return ext == ".json" && DetectKind(path) == KindUnknown
}

// SniffKind refines DetectKind with the first bytes of the file.
// The extension stays authoritative: sniffing only applies to ambiguous names.
func SniffKind(path string, head []byte) SourceKind {
	kind := DetectKind(path)
	if !IsAmbiguous(path) {
		return kind
	}

	trimmed := bytes.TrimSpace(head)
	switch {
	case bytes.HasPrefix(trimmed, []byte("%PDF-")):
		return KindPDF
	case looksLikeChat(trimmed):
		return KindAIChat
	case bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype html")),
		bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html")):
		return KindWebClip
	case bytes.HasPrefix(trimmed, []byte("[InternetShortcut]")):
		return KindURL
	}
	return kind
}

// looksLikeChat reports whether the bytes decode as a list of role/content
// turns or an object with a messages list.
func looksLikeChat(data []byte) bool {
	if len(data) == 0 || (data[0] != '[' && data[0] != '{') {
		return false
	}
	var turns []map[string]any
	if err := json.Unmarshal(data, &turns); err == nil {
		return len(turns) > 0 && turns[0]["role"] != nil
	}
	var wrapped struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return len(wrapped.Messages) > 0
	}
	return false
}
