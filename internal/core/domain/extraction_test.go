package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtraction_Normalise(t *testing.T) {
	e := Extraction{RawText: "x"}.Normalise()

	assert.NotNil(t, e.Tags)
	assert.NotNil(t, e.Tasks)
	assert.NotNil(t, e.Metadata)
	assert.Equal(t, "x", e.RawText)
}

func TestNewExtraction(t *testing.T) {
	e := NewExtraction()
	assert.Empty(t, e.RawText)
	assert.Equal(t, []string{}, e.Tags)
	assert.Equal(t, []string{}, e.Tasks)
	assert.Equal(t, map[string]any{}, e.Metadata)
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"work", "ideas", "Work"}, MergeTags([]string{"work", "ideas"}, []string{"ideas", "Work", ""}))
	assert.Equal(t, []string{}, MergeTags(nil, nil))
}

func TestProcessingOutcome_OK(t *testing.T) {
	assert.True(t, ProcessingOutcome{Status: OutcomeSuccess}.OK())
	assert.True(t, ProcessingOutcome{Status: OutcomeSkipped}.OK())
	assert.False(t, ProcessingOutcome{Status: OutcomeDegraded}.OK())
	assert.False(t, ProcessingOutcome{Status: OutcomeFailed}.OK())
}

func TestContentView_Helpers(t *testing.T) {
	v := ContentView{
		ContentRecord: ContentRecord{RawText: "raw"},
		Path:          "/notes/2024/idea.md",
	}
	assert.Equal(t, "idea.md", v.Filename())
	assert.Equal(t, "raw", v.Text())

	v.ProcessedText = "summary"
	assert.Equal(t, "summary", v.Text())
}

func TestDigest_Intersects(t *testing.T) {
	d := Digest{
		PeriodStart: time.Date(2024, 3, 27, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
	}
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, d.Intersects(april, may))
	assert.True(t, d.Intersects(march, april))
	assert.False(t, d.Intersects(may, may.AddDate(0, 1, 0)))
}

func TestParseDigestKind(t *testing.T) {
	k, err := ParseDigestKind("tasks")
	assert.NoError(t, err)
	assert.Equal(t, DigestTaskList, k)

	k, err = ParseDigestKind("reading")
	assert.NoError(t, err)
	assert.Equal(t, DigestSuggestedReading, k)

	k, err = ParseDigestKind("weekly")
	assert.NoError(t, err)
	assert.Equal(t, DigestWeekly, k)

	_, err = ParseDigestKind("yearly")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
