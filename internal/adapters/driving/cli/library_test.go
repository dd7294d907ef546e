package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
)

func sampleContent() []domain.ContentView {
	return []domain.ContentView{
		{
			ContentRecord: domain.ContentRecord{
				ID:            "c1",
				Kind:          domain.KindDocument,
				RawText:       "raw meeting notes #work",
				ProcessedText: "Tidy meeting summary",
				ProcessedAt:   time.Date(2025, 3, 19, 9, 30, 0, 0, time.UTC),
			},
			Path:     "/notes/meeting.md",
			Metadata: map[string]any{"words": 4, "author": "me"},
			Tags:     []string{"work", "meetings"},
		},
		{
			ContentRecord: domain.ContentRecord{ID: "c2", Kind: domain.KindImage, RawText: "whiteboard"},
			Path:          "/notes/board.png",
		},
	}
}

func TestContentListCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.library.content = sampleContent()

	out, err := execute(t, "content", "list", "-n", "5", "--offset", "10")
	require.NoError(t, err)
	assert.Equal(t, domain.Page{Offset: 10, Limit: 5}, ts.library.page)
	assert.Contains(t, out, "meeting.md")
	assert.Contains(t, out, "board.png")
	assert.Contains(t, out, "work meetings")
	assert.Contains(t, out, "2025-03-19 09:30")
	assert.Contains(t, out, "Showing 2 of 2")
}

func TestContentListCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.library.content = sampleContent()

	out, err := execute(t, "content", "list", "--json")
	require.NoError(t, err)

	var decoded struct {
		Total   int              `json:"total"`
		Content []map[string]any `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded.Total)
	assert.Len(t, decoded.Content, 2)
}

func TestContentListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "content", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No content stored yet.")
}

func TestContentShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.library.content = sampleContent()

	out, err := execute(t, "content", "show", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "/notes/meeting.md")
	assert.Contains(t, out, "Tags:      work meetings")
	assert.Contains(t, out, "author: me")
	assert.Contains(t, out, "Tidy meeting summary")
	assert.NotContains(t, out, "raw meeting notes")

	out, err = execute(t, "content", "show", "c1", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "raw meeting notes #work")

	_, err = execute(t, "content", "show", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = execute(t, "content", "show")
	assert.ErrorContains(t, err, "accepts 1 arg(s)")
}

func TestContentDeleteCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "content", "delete", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ts.library.deleted)
	assert.Contains(t, out, "Deleted content c1")
}

func TestTasksListCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	ts.library.tasks = []domain.Task{
		{ID: "t1", Text: "file taxes", DueDate: &due},
		{ID: "t2", Text: "call mum", Completed: true},
	}

	out, err := execute(t, "tasks", "list", "--all", "-n", "5")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFilter{IncludeCompleted: true, Limit: 5}, ts.library.filter)
	assert.Contains(t, out, "file taxes")
	assert.Contains(t, out, "2025-04-01")
	assert.Contains(t, out, "[x]")

	_, err = execute(t, "tasks", "list")
	require.NoError(t, err)
	assert.False(t, ts.library.filter.IncludeCompleted)
}

func TestTasksListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "tasks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")
}

func TestTasksDoneAndUndo(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "tasks", "done", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed task t1")

	out, err = execute(t, "tasks", "undo", "t2")
	require.NoError(t, err)
	assert.Contains(t, out, "Reopened task t2")

	assert.Equal(t, map[string]bool{"t1": true, "t2": false}, ts.library.completed)
}

func TestTagsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.library.tags = []domain.TagCount{{Name: "work", Count: 7}, {Name: "ideas", Count: 3}, {Name: "home", Count: 1}}

	out, err := execute(t, "tags", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "#work")
	assert.Contains(t, out, "#ideas")
	assert.NotContains(t, out, "#home")

	out, err = execute(t, "tags", "--json")
	require.NoError(t, err)
	var decoded []domain.TagCount
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded, 3)
}

func TestStatsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.library.stats = &domain.ContentStats{
		Files: 4, ContentRecords: 4, Unprocessed: 1, Tags: 6,
		OpenTasks: 2, CompletedTasks: 1, Digests: 3,
		ByKind: map[domain.SourceKind]int{domain.KindPDF: 1, domain.KindDocument: 3},
	}

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Content records: 4")
	assert.Contains(t, out, "Open tasks:      2")
	assert.Contains(t, out, "Digests:         3")
	assert.Regexp(t, `pdf\s+1`, out)
	assert.Regexp(t, `document\s+3`, out)
	assert.NotContains(t, out, "image")
}
