package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
)

func TestLibrary_ListContentPaging(t *testing.T) {
	ctx := context.Background()
	store := newFailingContentStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedContent(t, store, fmt.Sprintf("n%02d.txt", i), domain.KindDocument, "text", base.Add(time.Duration(i)*time.Hour))
	}
	s := NewLibraryService(store)

	tests := []struct {
		name      string
		page      domain.Page
		wantLen   int
		wantFirst string
	}{
		{"default limit", domain.Page{}, defaultPageSize, "n24.txt"},
		{"explicit page", domain.Page{Offset: 20, Limit: 10}, 5, "n04.txt"},
		{"negative offset", domain.Page{Offset: -5, Limit: 3}, 3, "n24.txt"},
		{"past the end", domain.Page{Offset: 100, Limit: 10}, 0, ""},
		{"limit capped", domain.Page{Limit: maxPageSize * 10}, 25, "n24.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.ListContent(ctx, tt.page)
			require.NoError(t, err)
			assert.Equal(t, 25, total)
			require.Len(t, items, tt.wantLen)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, items[0].Filename())
			}
		})
	}
}

func TestLibrary_RequiresIDs(t *testing.T) {
	ctx := context.Background()
	s := NewLibraryService(newFailingContentStore())

	_, err := s.GetContent(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, s.DeleteContent(ctx, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SetTaskCompleted(ctx, "", true), domain.ErrInvalidInput)
	_, err = s.GetDigest(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.GetContent(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibrary_TasksAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newFailingContentStore()
	id := seedContent(t, store, "a.txt", domain.KindDocument, "alpha", time.Now(), "x")
	taskID, err := store.AddTask(ctx, id, "ship it", nil)
	require.NoError(t, err)
	s := NewLibraryService(store)

	require.NoError(t, s.SetTaskCompleted(ctx, taskID, true))
	active, err := s.Tasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.Tasks(ctx, domain.TaskFilter{IncludeCompleted: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Completed)

	require.NoError(t, s.DeleteContent(ctx, id))
	all, err = s.Tasks(ctx, domain.TaskFilter{IncludeCompleted: true})
	require.NoError(t, err)
	assert.Empty(t, all)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ContentRecords)
}

func TestLibrary_Digests(t *testing.T) {
	ctx := context.Background()
	store := newFailingContentStore()
	saveWeekly(t, store, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), "week")
	s := NewLibraryService(store)

	_, err := s.Digests(ctx, "yearly")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = s.LatestDigest(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := s.Digests(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	latest, err := s.LatestDigest(ctx, domain.DigestWeekly)
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, latest.ID)

	_, err = s.LatestDigest(ctx, domain.DigestMonthly)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibrary_TopTags(t *testing.T) {
	ctx := context.Background()
	store := newFailingContentStore()
	seedContent(t, store, "a.txt", domain.KindDocument, "alpha", time.Now(), "go", "db")
	seedContent(t, store, "b.txt", domain.KindDocument, "beta", time.Now(), "go")

	tags, err := NewLibraryService(store).TopTags(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{{Name: "go", Count: 2}, {Name: "db", Count: 1}}, tags)
}
