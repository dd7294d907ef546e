package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	defaultTagLimit = 20
)

type contentJSON struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Path        string         `json:"path"`
	ProcessedAt string         `json:"processed_at,omitempty"`
	Tags        []string       `json:"tags"`
	Text        string         `json:"text"`
	RawText     string         `json:"raw_text,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type contentPageJSON struct {
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Content []contentJSON `json:"content"`
}

type taskJSON struct {
	ID        string `json:"id"`
	ContentID string `json:"content_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Due       string `json:"due,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type tagJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type digestJSON struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	PeriodStart string `json:"period_start,omitempty"`
	PeriodEnd   string `json:"period_end,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	URL         string `json:"url"`
}

type statsJSON struct {
	Files          int            `json:"files"`
	ContentRecords int            `json:"content_records"`
	Unprocessed    int            `json:"unprocessed"`
	Tags           int            `json:"tags"`
	OpenTasks      int            `json:"open_tasks"`
	CompletedTasks int            `json:"completed_tasks"`
	Digests        int            `json:"digests"`
	ByKind         map[string]int `json:"by_kind"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	views, total, err := s.deps.Library.ListContent(r.Context(), domain.Page{Offset: offset, Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}

	out := contentPageJSON{Total: total, Offset: offset, Limit: limit, Content: make([]contentJSON, len(views))}
	for i := range views {
		out.Content[i] = toContentJSON(&views[i], false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Library.GetContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContentJSON(view, true))
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Library.DeleteContent(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	logger.Info("dashboard: deleted content %s", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	tasks, err := s.deps.Library.Tasks(r.Context(), domain.TaskFilter{IncludeCompleted: all, Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]taskJSON, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		out[i] = taskJSON{
			ID:        t.ID,
			ContentID: t.ContentID,
			Text:      t.Text,
			Completed: t.Completed,
			CreatedAt: timestamp(t.CreatedAt),
		}
		if t.DueDate != nil {
			out[i].Due = t.DueDate.Format("2006-01-02")
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetTask(completed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.deps.Library.SetTaskCompleted(r.Context(), id, completed); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "completed": completed})
	}
}

func (s *Server) handleTopTags(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultTagLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit <= 0 {
		limit = defaultTagLimit
	}

	tags, err := s.deps.Library.TopTags(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]tagJSON, len(tags))
	for i, t := range tags {
		out[i] = tagJSON{Name: t.Name, Count: t.Count}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Library.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := statsJSON{
		Files:          stats.Files,
		ContentRecords: stats.ContentRecords,
		Unprocessed:    stats.Unprocessed,
		Tags:           stats.Tags,
		OpenTasks:      stats.OpenTasks,
		CompletedTasks: stats.CompletedTasks,
		Digests:        stats.Digests,
		ByKind:         make(map[string]int, len(stats.ByKind)),
	}
	for kind, n := range stats.ByKind {
		out.ByKind[string(kind)] = n
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDigests(w http.ResponseWriter, r *http.Request) {
	var kind domain.DigestKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := domain.ParseDigestKind(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		kind = k
	}

	digests, err := s.deps.Library.Digests(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]digestJSON, len(digests))
	for i := range digests {
		d := &digests[i]
		out[i] = digestJSON{
			ID:          d.ID,
			Kind:        string(d.Kind),
			PeriodStart: timestamp(d.PeriodStart),
			PeriodEnd:   timestamp(d.PeriodEnd),
			CreatedAt:   timestamp(d.CreatedAt),
			URL:         "/digests/" + d.ID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDigestPage renders a stored digest as a sanitised HTML page.
func (s *Server) handleDigestPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Library.GetDigest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "digest not found", http.StatusNotFound)
			return
		}
		logger.Error("dashboard: get digest: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page, err := s.renderer.Page(string(d.Kind)+" digest", d.Body)
	if err != nil {
		logger.Error("dashboard: render digest %s: %v", d.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page) //nolint:errcheck
}

func toContentJSON(v *domain.ContentView, full bool) contentJSON {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	out := contentJSON{
		ID:          v.ID,
		Kind:        string(v.Kind),
		Path:        v.Path,
		ProcessedAt: timestamp(v.ProcessedAt),
		Tags:        tags,
		Text:        v.Text(),
	}
	if full {
		out.RawText = v.RawText
		out.Metadata = v.Metadata
	}
	return out
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &paramError{name: name, value: raw}
	}
	return n, nil
}

type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value)
}

func (e *paramError) Unwrap() error {
	return domain.ErrInvalidInput
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("dashboard: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorJSON{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("dashboard: encode response: %v", err)
	}
}

// timestamp formats t as RFC 3339, or "" when unset.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
