// Package extractors wires one extractor per source kind.
package extractors

import (
	"fmt"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/chat"
	"github.com/behole/scribble/internal/extractors/document"
	"github.com/behole/scribble/internal/extractors/image"
	"github.com/behole/scribble/internal/extractors/pdf"
	"github.com/behole/scribble/internal/extractors/urlref"
	"github.com/behole/scribble/internal/extractors/webclip"
	"github.com/behole/scribble/internal/prompts"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps every source kind to its extractor.
type Registry struct {
	byKind map[domain.SourceKind]driven.Extractor
}

// NewRegistry builds a registry from extractors. It panics when a kind
// is missing or registered twice, so every kind always has exactly one
// extractor.
func NewRegistry(list ...driven.Extractor) *Registry {
	byKind := make(map[domain.SourceKind]driven.Extractor, len(list))
	for _, e := range list {
		if _, dup := byKind[e.Kind()]; dup {
			panic(fmt.Sprintf("extractors: kind %q registered twice", e.Kind()))
		}
		byKind[e.Kind()] = e
	}
	for _, kind := range domain.AllKinds() {
		if _, ok := byKind[kind]; !ok {
			panic(fmt.Sprintf("extractors: no extractor for kind %q", kind))
		}
	}
	return &Registry{byKind: byKind}
}

// For returns the extractor for kind. Invalid kinds use the unknown
// extractor.
func (r *Registry) For(kind domain.SourceKind) driven.Extractor {
	if e, ok := r.byKind[kind]; ok {
		return e
	}
	return r.byKind[domain.KindUnknown]
}

// Deps are the collaborators the default extractors need. Nil OCR, LLM
// or Fetcher disable the features that use them.
type Deps struct {
	Settings  domain.ProcessingSettings
	OCR       driven.OCREngine
	LLM       driven.LLMService
	Fetcher   driven.Fetcher
	Renderers []driven.PageRenderer
	Prompts   *prompts.Loader
}

// NewDefault creates a registry with the standard extractor for every kind.
func NewDefault(deps Deps) *Registry {
	ocr := deps.OCR
	if !deps.Settings.EnableOCR {
		ocr = nil
	}
	return NewRegistry(
		image.New(ocr, deps.LLM, deps.Prompts),
		pdf.New(pdf.Options{
			HandwritingThreshold: deps.Settings.HandwritingThreshold,
			Renderers:            deps.Renderers,
			OCR:                  ocr,
			LLM:                  deps.LLM,
			Prompts:              deps.Prompts,
		}),
		document.New(deps.Settings.MaxTextLength),
		webclip.New(),
		urlref.New(deps.Fetcher, deps.Settings.EnableWebFetching),
		chat.New(),
		document.NewUnknown(deps.Settings.MaxTextLength),
	)
}
