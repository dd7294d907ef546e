package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/behole/scribble/internal/connectors/filesystem"
	"github.com/behole/scribble/internal/core/domain"
)

const (
	defaultListLimit = 20
	defaultTagLimit  = 10
	excerptLength    = 200
)

// ProcessFileInput is the input schema for the process_file tool.
type ProcessFileInput struct {
	Path string `json:"path" jsonschema:"absolute path or file:// URI of the file to process"`
}

// ProcessFileOutput reports what happened to one file.
type ProcessFileOutput struct {
	Path      string   `json:"path"`
	Kind      string   `json:"kind"`
	Status    string   `json:"status"`
	ContentID string   `json:"content_id,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Tasks     []string `json:"tasks,omitempty"`
	Note      string   `json:"note,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ListContentInput is the input schema for the list_content tool.
type ListContentInput struct {
	Offset int `json:"offset,omitempty" jsonschema:"number of records to skip"`
	Limit  int `json:"limit,omitempty" jsonschema:"maximum number of records to return (default 20)"`
}

// ListContentOutput is a page of content, newest first.
type ListContentOutput struct {
	Total int              `json:"total"`
	Items []ContentSummary `json:"items"`
}

// ContentSummary is one content record in a listing.
type ContentSummary struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Path        string   `json:"path"`
	ProcessedAt string   `json:"processed_at,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Excerpt     string   `json:"excerpt"`
}

// GetContentInput is the input schema for the get_content tool.
type GetContentInput struct {
	ID string `json:"id" jsonschema:"content record ID"`
}

// ContentDetail is one content record with its full text.
type ContentDetail struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Path        string         `json:"path"`
	ProcessedAt string         `json:"processed_at,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Text        string         `json:"text"`
	RawText     string         `json:"raw_text"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ListTasksInput is the input schema for the list_tasks tool.
type ListTasksInput struct {
	IncludeCompleted bool `json:"include_completed,omitempty" jsonschema:"include completed tasks"`
	Limit            int  `json:"limit,omitempty" jsonschema:"maximum number of tasks (default all)"`
}

// ListTasksOutput lists tasks, open ones first.
type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
	Count int          `json:"count"`
}

// TaskOutput is one task.
type TaskOutput struct {
	ID        string `json:"id"`
	ContentID string `json:"content_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Due       string `json:"due,omitempty"`
}

// CompleteTaskInput is the input schema for the complete_task tool.
type CompleteTaskInput struct {
	ID     string `json:"id" jsonschema:"task ID"`
	Reopen bool   `json:"reopen,omitempty" jsonschema:"set to reopen a completed task instead"`
}

// CompleteTaskOutput confirms the new task state.
type CompleteTaskOutput struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// TopTagsInput is the input schema for the top_tags tool.
type TopTagsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of tags (default 10)"`
}

// TopTagsOutput lists the most used tags.
type TopTagsOutput struct {
	Tags []TagOutput `json:"tags"`
}

// TagOutput is a tag with its usage count.
type TagOutput struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GenerateDigestInput is the input schema for the generate_digest tool.
type GenerateDigestInput struct {
	Kind  string `json:"kind" jsonschema:"weekly, monthly, task_list, topic, suggested_reading or full"`
	End   string `json:"end,omitempty" jsonschema:"weekly only: last day of the week, YYYY-MM-DD"`
	Month string `json:"month,omitempty" jsonschema:"monthly only: YYYY-MM (default last month)"`
	Tag   string `json:"tag,omitempty" jsonschema:"topic only: tag to report on (default most used)"`
}

// LatestDigestInput is the input schema for the latest_digest tool.
type LatestDigestInput struct {
	Kind string `json:"kind" jsonschema:"digest kind, e.g. weekly"`
}

// DigestOutput is a generated or stored digest.
type DigestOutput struct {
	ID              string   `json:"id,omitempty"`
	Kind            string   `json:"kind"`
	PeriodStart     string   `json:"period_start,omitempty"`
	PeriodEnd       string   `json:"period_end,omitempty"`
	Body            string   `json:"body,omitempty"`
	Paths           []string `json:"paths,omitempty"`
	NothingToReport bool     `json:"nothing_to_report,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// StatsInput is the empty input schema for the stats tool.
type StatsInput struct{}

// StatsOutput summarises the store.
type StatsOutput struct {
	Files          int            `json:"files"`
	ContentRecords int            `json:"content_records"`
	Unprocessed    int            `json:"unprocessed"`
	Tags           int            `json:"tags"`
	OpenTasks      int            `json:"open_tasks"`
	CompletedTasks int            `json:"completed_tasks"`
	Digests        int            `json:"digests"`
	ByKind         map[string]int `json:"by_kind,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "process_file",
		Description: "Extract, tag and store a file from the local disk",
	}, s.handleProcessFile)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_content",
		Description: "List stored notes, newest first",
	}, s.handleListContent)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_content",
		Description: "Get one stored note with its full text and tags",
	}, s.handleGetContent)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks extracted from notes, open ones first",
	}, s.handleListTasks)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed, or reopen it",
	}, s.handleCompleteTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "top_tags",
		Description: "List the most used tags",
	}, s.handleTopTags)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_digest",
		Description: "Generate a digest now and return its Markdown body",
	}, s.handleGenerateDigest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "latest_digest",
		Description: "Get the most recent digest of a kind",
	}, s.handleLatestDigest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Summarise what is stored",
	}, s.handleStats)
}

func (s *Server) handleProcessFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessFileInput,
) (*mcp.CallToolResult, ProcessFileOutput, error) {
	if s.ports.Dispatcher == nil {
		return nil, ProcessFileOutput{}, ErrMissingDispatcher
	}
	if strings.TrimSpace(input.Path) == "" {
		return nil, ProcessFileOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	o := s.ports.Dispatcher.Dispatch(ctx, filesystem.ResolvePath(input.Path))
	output := ProcessFileOutput{
		Path:      o.Path,
		Kind:      string(o.Kind),
		Status:    string(o.Status),
		ContentID: o.ContentID,
		Tags:      o.Tags,
		Tasks:     o.Tasks,
		Note:      o.Note,
	}
	if o.Err != nil {
		output.Error = o.Err.Error()
	}
	return nil, output, nil
}

func (s *Server) handleListContent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListContentInput,
) (*mcp.CallToolResult, ListContentOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	views, total, err := s.ports.Library.ListContent(ctx, domain.Page{Offset: input.Offset, Limit: limit})
	if err != nil {
		return nil, ListContentOutput{}, err
	}

	output := ListContentOutput{Total: total, Items: make([]ContentSummary, len(views))}
	for i := range views {
		v := &views[i]
		output.Items[i] = ContentSummary{
			ID:          v.ID,
			Kind:        string(v.Kind),
			Path:        v.Path,
			ProcessedAt: timestamp(v.ProcessedAt),
			Tags:        v.Tags,
			Excerpt:     excerpt(v.Text()),
		}
	}
	return nil, output, nil
}

func (s *Server) handleGetContent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetContentInput,
) (*mcp.CallToolResult, ContentDetail, error) {
	v, err := s.ports.Library.GetContent(ctx, input.ID)
	if err != nil {
		return nil, ContentDetail{}, err
	}
	return nil, ContentDetail{
		ID:          v.ID,
		Kind:        string(v.Kind),
		Path:        v.Path,
		ProcessedAt: timestamp(v.ProcessedAt),
		Tags:        v.Tags,
		Text:        v.Text(),
		RawText:     v.RawText,
		Metadata:    v.Metadata,
	}, nil
}

func (s *Server) handleListTasks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListTasksInput,
) (*mcp.CallToolResult, ListTasksOutput, error) {
	tasks, err := s.ports.Library.Tasks(ctx, domain.TaskFilter{
		IncludeCompleted: input.IncludeCompleted,
		Limit:            input.Limit,
	})
	if err != nil {
		return nil, ListTasksOutput{}, err
	}

	output := ListTasksOutput{Tasks: make([]TaskOutput, len(tasks)), Count: len(tasks)}
	for i := range tasks {
		t := &tasks[i]
		output.Tasks[i] = TaskOutput{
			ID:        t.ID,
			ContentID: t.ContentID,
			Text:      t.Text,
			Completed: t.Completed,
		}
		if t.DueDate != nil {
			output.Tasks[i].Due = t.DueDate.Format("2006-01-02")
		}
	}
	return nil, output, nil
}

func (s *Server) handleCompleteTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompleteTaskInput,
) (*mcp.CallToolResult, CompleteTaskOutput, error) {
	completed := !input.Reopen
	if err := s.ports.Library.SetTaskCompleted(ctx, input.ID, completed); err != nil {
		return nil, CompleteTaskOutput{}, err
	}
	return nil, CompleteTaskOutput{ID: input.ID, Completed: completed}, nil
}

func (s *Server) handleTopTags(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TopTagsInput,
) (*mcp.CallToolResult, TopTagsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTagLimit
	}

	tags, err := s.ports.Library.TopTags(ctx, limit)
	if err != nil {
		return nil, TopTagsOutput{}, err
	}

	output := TopTagsOutput{Tags: make([]TagOutput, len(tags))}
	for i, tag := range tags {
		output.Tags[i] = TagOutput{Name: tag.Name, Count: tag.Count}
	}
	return nil, output, nil
}

func (s *Server) handleGenerateDigest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateDigestInput,
) (*mcp.CallToolResult, DigestOutput, error) {
	kind, err := domain.ParseDigestKind(input.Kind)
	if err != nil {
		return nil, DigestOutput{}, fmt.Errorf("digest kind %q: %w", input.Kind, err)
	}

	opts := domain.DigestOptions{Tag: input.Tag}
	if input.End != "" {
		end, err := time.ParseInLocation("2006-01-02", input.End, time.Local)
		if err != nil {
			return nil, DigestOutput{}, fmt.Errorf("%w: end %q, want YYYY-MM-DD", domain.ErrInvalidInput, input.End)
		}
		opts.End = end.AddDate(0, 0, 1)
	}
	if input.Month != "" {
		month, err := time.Parse("2006-01", input.Month)
		if err != nil {
			return nil, DigestOutput{}, fmt.Errorf("%w: month %q, want YYYY-MM", domain.ErrInvalidInput, input.Month)
		}
		opts.Year, opts.Month = month.Year(), month.Month()
	}

	result, err := s.ports.Digests.Generate(ctx, kind, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToReport) {
			return nil, DigestOutput{Kind: string(kind), NothingToReport: true, Message: err.Error()}, nil
		}
		return nil, DigestOutput{}, err
	}

	output := digestOutput(&result.Digest)
	output.Paths = result.Paths
	return nil, output, nil
}

func (s *Server) handleLatestDigest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LatestDigestInput,
) (*mcp.CallToolResult, DigestOutput, error) {
	kind, err := domain.ParseDigestKind(input.Kind)
	if err != nil {
		return nil, DigestOutput{}, fmt.Errorf("digest kind %q: %w", input.Kind, err)
	}

	d, err := s.ports.Library.LatestDigest(ctx, kind)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, DigestOutput{Kind: string(kind), NothingToReport: true, Message: "no " + string(kind) + " digest yet"}, nil
		}
		return nil, DigestOutput{}, err
	}
	return nil, digestOutput(d), nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Library.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		Files:          stats.Files,
		ContentRecords: stats.ContentRecords,
		Unprocessed:    stats.Unprocessed,
		Tags:           stats.Tags,
		OpenTasks:      stats.OpenTasks,
		CompletedTasks: stats.CompletedTasks,
		Digests:        stats.Digests,
	}
	if len(stats.ByKind) > 0 {
		output.ByKind = make(map[string]int, len(stats.ByKind))
		for kind, n := range stats.ByKind {
			output.ByKind[string(kind)] = n
		}
	}
	return nil, output, nil
}

func digestOutput(d *domain.Digest) DigestOutput {
	return DigestOutput{
		ID:          d.ID,
		Kind:        string(d.Kind),
		PeriodStart: timestamp(d.PeriodStart),
		PeriodEnd:   timestamp(d.PeriodEnd),
		Body:        d.Body,
	}
}

// timestamp formats t as RFC 3339, or "" when unset.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// excerpt returns the first excerptLength runes of text on one line.
func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= excerptLength {
		return text
	}
	return string(r[:excerptLength]) + "..."
}
