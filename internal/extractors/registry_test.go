package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/chat"
	"github.com/behole/scribble/internal/extractors/document"
)

type fakeExtractor struct {
	kind domain.SourceKind
}

func (f fakeExtractor) Kind() domain.SourceKind { return f.kind }

func (f fakeExtractor) Extract(_ context.Context, _ string) (domain.Extraction, error) {
	return domain.NewExtraction(), nil
}

func allFakes() []driven.Extractor {
	list := make([]driven.Extractor, 0, len(domain.AllKinds()))
	for _, k := range domain.AllKinds() {
		list = append(list, fakeExtractor{kind: k})
	}
	return list
}

func TestNewDefault_CoversEveryKind(t *testing.T) {
	r := NewDefault(Deps{Settings: domain.DefaultSettings().Processing})

	for _, kind := range domain.AllKinds() {
		e := r.For(kind)
		if assert.NotNil(t, e, kind) {
			assert.Equal(t, kind, e.Kind())
		}
	}
	assert.IsType(t, &chat.Extractor{}, r.For(domain.KindAIChat))
	assert.IsType(t, &document.Extractor{}, r.For(domain.KindDocument))
}

func TestFor_InvalidKindFallsBackToUnknown(t *testing.T) {
	r := NewRegistry(allFakes()...)
	assert.Equal(t, domain.KindUnknown, r.For("spreadsheet").Kind())
}

func TestNewRegistry_PanicsOnMissingKind(t *testing.T) {
	list := allFakes()[1:]
	assert.Panics(t, func() { NewRegistry(list...) })
}

func TestNewRegistry_PanicsOnDuplicateKind(t *testing.T) {
	list := append(allFakes(), fakeExtractor{kind: domain.KindPDF})
	assert.Panics(t, func() { NewRegistry(list...) })
}
