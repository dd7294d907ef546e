package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
)

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

// viewColumns selects a ContentView; scanView reads them in this order.
const viewColumns = `
	c.id, c.file_id, c.kind, c.raw_text, c.processed_text, c.processed_at,
	f.path, f.kind, f.metadata`

const viewFrom = `
	FROM content c
	JOIN files f ON f.id = c.file_id`

// ==================== Files ====================

// AddFile records a source file unless its hash is already known.
func (s *contentStore) AddFile(ctx context.Context, file domain.SourceFile) (string, bool, error) {
	if file.Hash == "" {
		return "", false, fmt.Errorf("%w: file hash is required", domain.ErrInvalidInput)
	}
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	now := time.Now()
	if file.AddedAt.IsZero() {
		file.AddedAt = now
	}
	if file.LastProcessedAt.IsZero() {
		file.LastProcessedAt = now
	}

	metaJSON, err := marshalMetadata(file.Metadata)
	if err != nil {
		return "", false, err
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO files (id, path, kind, hash, metadata, added_at, last_processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, file.ID, file.Path, string(file.Kind), file.Hash, metaJSON,
		formatTime(file.AddedAt), formatTime(file.LastProcessedAt))
	if err != nil {
		return "", false, storageErr("adding file", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return file.ID, true, nil
	}

	existing, err := s.FileByHash(ctx, file.Hash)
	if err != nil {
		return "", false, err
	}
	return existing.ID, false, nil
}

// FileByHash returns the file with the given hash.
func (s *contentStore) FileByHash(ctx context.Context, hash string) (*domain.SourceFile, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, path, kind, hash, metadata, added_at, last_processed_at
		FROM files WHERE hash = ?
	`, hash)

	var file domain.SourceFile
	var kind, metaJSON, addedAt string
	var lastProcessed sql.NullString
	if err := row.Scan(&file.ID, &file.Path, &kind, &file.Hash, &metaJSON, &addedAt, &lastProcessed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("scanning file", err)
	}
	file.Kind = domain.SourceKind(kind)
	file.Metadata = unmarshalMetadata(metaJSON)
	file.AddedAt = parseTime(addedAt)
	file.LastProcessedAt = parseNullableTime(lastProcessed)
	return &file, nil
}

// ==================== Content ====================

// AddContent appends a content record.
func (s *contentStore) AddContent(ctx context.Context, record domain.ContentRecord) (string, error) {
	if record.FileID == "" {
		return "", fmt.Errorf("%w: content needs a file", domain.ErrInvalidInput)
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO content (id, file_id, kind, raw_text, processed_text, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ID, record.FileID, string(record.Kind), record.RawText, record.ProcessedText,
		formatTime(record.ProcessedAt))
	if err != nil {
		return "", storageErr("adding content", err)
	}

	// Keep the file's last-processed time current.
	if _, err := s.store.db.ExecContext(ctx,
		"UPDATE files SET last_processed_at = ? WHERE id = ?",
		formatTime(record.ProcessedAt), record.FileID); err != nil {
		return record.ID, storageErr("updating file", err)
	}
	return record.ID, nil
}

// GetContent returns one content record with its file and tags.
func (s *contentStore) GetContent(ctx context.Context, contentID string) (*domain.ContentView, error) {
	views, err := s.queryViews(ctx, "get content", `
		SELECT`+viewColumns+viewFrom+`
		WHERE c.id = ?`, contentID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, domain.ErrNotFound
	}
	return &views[0], nil
}

// ContentForPeriod returns content processed in [start, end), newest first.
func (s *contentStore) ContentForPeriod(ctx context.Context, start, end time.Time) ([]domain.ContentView, error) {
	return s.queryViews(ctx, "querying content for period", `
		SELECT`+viewColumns+viewFrom+`
		WHERE c.processed_at >= ? AND c.processed_at < ?
		ORDER BY c.processed_at DESC, c.rowid DESC`, formatTime(start), formatTime(end))
}

// RecentContent returns the most recently processed content.
func (s *contentStore) RecentContent(ctx context.Context, limit int) ([]domain.ContentView, error) {
	return s.queryViews(ctx, "querying recent content", `
		SELECT`+viewColumns+viewFrom+`
		ORDER BY c.processed_at DESC, c.rowid DESC
		LIMIT ?`, sqlLimit(limit))
}

// ListContent returns a page of content, newest first.
func (s *contentStore) ListContent(ctx context.Context, page domain.Page) ([]domain.ContentView, error) {
	if page.Offset < 0 {
		page.Offset = 0
	}
	return s.queryViews(ctx, "listing content", `
		SELECT`+viewColumns+viewFrom+`
		ORDER BY c.processed_at DESC, c.rowid DESC
		LIMIT ? OFFSET ?`, sqlLimit(page.Limit), page.Offset)
}

// CountContent returns the number of content records.
func (s *contentStore) CountContent(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&n); err != nil {
		return 0, storageErr("counting content", err)
	}
	return n, nil
}

// ContentByTag returns content linked to tag, newest first.
func (s *contentStore) ContentByTag(ctx context.Context, tag string, limit int) ([]domain.ContentView, error) {
	return s.queryViews(ctx, "querying content by tag", `
		SELECT`+viewColumns+viewFrom+`
		JOIN content_tags ct ON ct.content_id = c.id
		JOIN tags t ON t.id = ct.tag_id
		WHERE t.name = ?
		ORDER BY c.processed_at DESC, c.rowid DESC
		LIMIT ?`, tag, sqlLimit(limit))
}

// UpdateProcessedText fills in the processed text of a record.
func (s *contentStore) UpdateProcessedText(ctx context.Context, contentID, text string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE content SET processed_text = ? WHERE id = ?", text, contentID)
	if err != nil {
		return storageErr("updating processed text", err)
	}
	return requireAffected(res, "updating processed text")
}

// UnprocessedContent returns records without processed text, oldest first.
func (s *contentStore) UnprocessedContent(ctx context.Context, limit int) ([]domain.ContentView, error) {
	return s.queryViews(ctx, "querying unprocessed content", `
		SELECT`+viewColumns+viewFrom+`
		WHERE c.processed_text = ''
		ORDER BY c.processed_at ASC, c.rowid ASC
		LIMIT ?`, sqlLimit(limit))
}

// DeleteContent removes a record with its tasks and tag links.
func (s *contentStore) DeleteContent(ctx context.Context, contentID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("deleting content", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		"DELETE FROM tasks WHERE content_id = ?",
		"DELETE FROM content_tags WHERE content_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, contentID); err != nil {
			return storageErr("deleting content", err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM content WHERE id = ?", contentID)
	if err != nil {
		return storageErr("deleting content", err)
	}
	if err := requireAffected(res, "deleting content"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("deleting content", err)
	}
	return nil
}

// ==================== Tags ====================

// AddTags links tags to a content record, creating missing tags.
func (s *contentStore) AddTags(ctx context.Context, contentID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("adding tags", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, name := range tags {
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO tags (id, name) VALUES (?, ?)",
			uuid.New().String(), name); err != nil {
			return storageErr("creating tag", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO content_tags (content_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?
		`, contentID, name); err != nil {
			return storageErr("linking tag", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("adding tags", err)
	}
	return nil
}

// TagsForContent returns the tag names linked to a content record.
func (s *contentStore) TagsForContent(ctx context.Context, contentID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN content_tags ct ON ct.tag_id = t.id
		WHERE ct.content_id = ?
		ORDER BY t.rowid
	`, contentID)
	if err != nil {
		return nil, storageErr("querying tags", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("scanning tag", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating tags", err)
	}
	return tags, nil
}

// TopTags returns the most used tags. Ties keep tag creation order.
func (s *contentStore) TopTags(ctx context.Context, limit int, since time.Time) ([]domain.TagCount, error) {
	query := `
		SELECT t.name, COUNT(*) AS cnt
		FROM tags t
		JOIN content_tags ct ON ct.tag_id = t.id
		JOIN content c ON c.id = ct.content_id`
	args := []any{}
	if !since.IsZero() {
		query += `
		WHERE c.processed_at >= ?`
		args = append(args, formatTime(since))
	}
	query += `
		GROUP BY t.id
		ORDER BY cnt DESC, t.rowid ASC
		LIMIT ?`
	args = append(args, sqlLimit(limit))

	return s.queryTagCounts(ctx, "querying top tags", query, args...)
}

// RelatedTags returns tags that co-occur with tag, most frequent first.
func (s *contentStore) RelatedTags(ctx context.Context, tag string, limit int) ([]domain.TagCount, error) {
	return s.queryTagCounts(ctx, "querying related tags", `
		SELECT other.name, COUNT(*) AS cnt
		FROM tags target
		JOIN content_tags a ON a.tag_id = target.id
		JOIN content_tags b ON b.content_id = a.content_id AND b.tag_id <> a.tag_id
		JOIN tags other ON other.id = b.tag_id
		WHERE target.name = ?
		GROUP BY other.id
		ORDER BY cnt DESC, other.rowid ASC
		LIMIT ?`, tag, sqlLimit(limit))
}

func (s *contentStore) queryTagCounts(ctx context.Context, op, query string, args ...any) ([]domain.TagCount, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	counts := []domain.TagCount{}
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, storageErr(op, err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return counts, nil
}

// ==================== Tasks ====================

// AddTask records a task for a content record.
func (s *contentStore) AddTask(ctx context.Context, contentID, text string, due *time.Time) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: task text is required", domain.ErrInvalidInput)
	}
	id := uuid.New().String()
	var dueArg any
	if due != nil {
		dueArg = formatTime(*due)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tasks (id, content_id, text, completed, due_date, created_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, id, contentID, text, dueArg, formatTime(time.Now()))
	if err != nil {
		return "", storageErr("adding task", err)
	}
	return id, nil
}

// UpdateTaskStatus sets a task's completion flag.
func (s *contentStore) UpdateTaskStatus(ctx context.Context, taskID string, completed bool) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE tasks SET completed = ? WHERE id = ?", boolToInt(completed), taskID)
	if err != nil {
		return storageErr("updating task", err)
	}
	return requireAffected(res, "updating task")
}

// Tasks returns tasks active first, then due date ascending with undated
// tasks last, then newest first.
func (s *contentStore) Tasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `
		SELECT id, content_id, text, completed, due_date, created_at
		FROM tasks`
	if !filter.IncludeCompleted {
		query += `
		WHERE completed = 0`
	}
	query += `
		ORDER BY completed ASC, due_date IS NULL, due_date ASC, created_at DESC, rowid DESC
		LIMIT ?`

	rows, err := s.store.db.QueryContext(ctx, query, sqlLimit(filter.Limit))
	if err != nil {
		return nil, storageErr("querying tasks", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var task domain.Task
		var completed int
		var due sql.NullString
		var createdAt string
		if err := rows.Scan(&task.ID, &task.ContentID, &task.Text, &completed, &due, &createdAt); err != nil {
			return nil, storageErr("scanning task", err)
		}
		task.Completed = completed == 1
		if d := parseNullableTime(due); !d.IsZero() {
			task.DueDate = &d
		}
		task.CreatedAt = parseTime(createdAt)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating tasks", err)
	}
	return tasks, nil
}

// ==================== Digests ====================

// SaveDigest stores a digest.
func (s *contentStore) SaveDigest(ctx context.Context, digest domain.Digest) (string, error) {
	if !digest.Kind.IsValid() {
		return "", fmt.Errorf("%w: digest kind %q", domain.ErrInvalidInput, digest.Kind)
	}
	if digest.ID == "" {
		digest.ID = uuid.New().String()
	}
	if digest.CreatedAt.IsZero() {
		digest.CreatedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO digests (id, kind, body, period_start, period_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, digest.ID, string(digest.Kind), digest.Body,
		formatTime(digest.PeriodStart), formatTime(digest.PeriodEnd), formatTime(digest.CreatedAt))
	if err != nil {
		return "", storageErr("saving digest", err)
	}
	return digest.ID, nil
}

const digestColumns = "id, kind, body, period_start, period_end, created_at"

// LatestDigest returns the newest digest of a kind.
func (s *contentStore) LatestDigest(ctx context.Context, kind domain.DigestKind) (*domain.Digest, error) {
	digests, err := s.queryDigests(ctx, "querying latest digest", `
		SELECT `+digestColumns+` FROM digests
		WHERE kind = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, string(kind))
	if err != nil {
		return nil, err
	}
	if len(digests) == 0 {
		return nil, domain.ErrNotFound
	}
	return &digests[0], nil
}

// DigestsInRange returns digests of a kind whose window intersects [start, end).
func (s *contentStore) DigestsInRange(ctx context.Context, kind domain.DigestKind, start, end time.Time) ([]domain.Digest, error) {
	return s.queryDigests(ctx, "querying digests in range", `
		SELECT `+digestColumns+` FROM digests
		WHERE kind = ? AND period_start < ? AND period_end > ?
		ORDER BY period_start ASC, created_at ASC`,
		string(kind), formatTime(end), formatTime(start))
}

// Digests returns digests of a kind by window start, or all digests
// newest first when kind is empty.
func (s *contentStore) Digests(ctx context.Context, kind domain.DigestKind) ([]domain.Digest, error) {
	if kind == "" {
		return s.queryDigests(ctx, "listing digests", `
			SELECT `+digestColumns+` FROM digests
			ORDER BY created_at DESC, rowid DESC`)
	}
	return s.queryDigests(ctx, "listing digests", `
		SELECT `+digestColumns+` FROM digests
		WHERE kind = ?
		ORDER BY period_start ASC, created_at ASC`, string(kind))
}

// GetDigest returns one digest.
func (s *contentStore) GetDigest(ctx context.Context, digestID string) (*domain.Digest, error) {
	digests, err := s.queryDigests(ctx, "get digest", `
		SELECT `+digestColumns+` FROM digests WHERE id = ?`, digestID)
	if err != nil {
		return nil, err
	}
	if len(digests) == 0 {
		return nil, domain.ErrNotFound
	}
	return &digests[0], nil
}

func (s *contentStore) queryDigests(ctx context.Context, op, query string, args ...any) ([]domain.Digest, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	digests := []domain.Digest{}
	for rows.Next() {
		var d domain.Digest
		var kind, start, end, created string
		if err := rows.Scan(&d.ID, &kind, &d.Body, &start, &end, &created); err != nil {
			return nil, storageErr(op, err)
		}
		d.Kind = domain.DigestKind(kind)
		d.PeriodStart = parseTime(start)
		d.PeriodEnd = parseTime(end)
		d.CreatedAt = parseTime(created)
		digests = append(digests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return digests, nil
}

// ==================== Stats ====================

// Stats summarises the store.
func (s *contentStore) Stats(ctx context.Context) (*domain.ContentStats, error) {
	stats := &domain.ContentStats{ByKind: map[domain.SourceKind]int{}}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM files", &stats.Files},
		{"SELECT COUNT(*) FROM content", &stats.ContentRecords},
		{"SELECT COUNT(*) FROM content WHERE processed_text = ''", &stats.Unprocessed},
		{"SELECT COUNT(*) FROM tags", &stats.Tags},
		{"SELECT COUNT(*) FROM tasks WHERE completed = 0", &stats.OpenTasks},
		{"SELECT COUNT(*) FROM tasks WHERE completed = 1", &stats.CompletedTasks},
		{"SELECT COUNT(*) FROM digests", &stats.Digests},
	}
	for _, c := range counts {
		if err := s.store.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, storageErr("computing stats", err)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM content GROUP BY kind")
	if err != nil {
		return nil, storageErr("computing stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, storageErr("computing stats", err)
		}
		stats.ByKind[domain.SourceKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("computing stats", err)
	}
	return stats, nil
}

// ==================== Helper Functions ====================

// queryViews runs a viewColumns query and attaches tags to each row.
func (s *contentStore) queryViews(ctx context.Context, op, query string, args ...any) ([]domain.ContentView, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	views := []domain.ContentView{}
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			rows.Close()
			return nil, storageErr(op, err)
		}
		views = append(views, view)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, storageErr(op, err)
	}

	if err := s.attachTags(ctx, views); err != nil {
		return nil, storageErr(op, err)
	}
	return views, nil
}

// attachTags loads tags for all views in one query.
func (s *contentStore) attachTags(ctx context.Context, views []domain.ContentView) error {
	if len(views) == 0 {
		return nil
	}
	index := make(map[string]int, len(views))
	args := make([]any, 0, len(views))
	for i := range views {
		views[i].Tags = []string{}
		index[views[i].ID] = i
		args = append(args, views[i].ID)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT ct.content_id, t.name
		FROM content_tags ct
		JOIN tags t ON t.id = ct.tag_id
		WHERE ct.content_id IN (`+placeholders(len(args))+`)
		ORDER BY t.rowid`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var contentID, name string
		if err := rows.Scan(&contentID, &name); err != nil {
			return err
		}
		if i, ok := index[contentID]; ok {
			views[i].Tags = append(views[i].Tags, name)
		}
	}
	return rows.Err()
}

// scanView scans the columns listed in viewColumns.
func scanView(rows *sql.Rows) (domain.ContentView, error) {
	var v domain.ContentView
	var kind, processedAt, fileKind, metaJSON string
	if err := rows.Scan(&v.ID, &v.FileID, &kind, &v.RawText, &v.ProcessedText, &processedAt,
		&v.Path, &fileKind, &metaJSON); err != nil {
		return v, fmt.Errorf("scanning content: %w", err)
	}
	v.Kind = domain.SourceKind(kind)
	v.ProcessedAt = parseTime(processedAt)
	v.FileKind = domain.SourceKind(fileKind)
	v.Metadata = unmarshalMetadata(metaJSON)
	return v, nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: marshalling metadata: %w", domain.ErrInvalidInput, err)
	}
	return string(data), nil
}

// unmarshalMetadata decodes stored metadata. Corrupt JSON yields an empty map.
func unmarshalMetadata(s string) map[string]any {
	m := map[string]any{}
	if s == "" {
		return m
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// requireAffected maps zero affected rows to domain.ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
