package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
	"github.com/behole/scribble/internal/prompts"
)

// Ensure DigestService implements the interface.
var _ driving.DigestCompiler = (*DigestService)(nil)

const (
	// weeklyFallbackLimit caps the records used when the week is empty.
	weeklyFallbackLimit = 50

	weeklyTopTags  = 10
	monthlyTopTags = 15

	topicContentLimit = 100
	topicRelatedLimit = 10

	readingWindow = 30 * 24 * time.Hour
	readingTopics = 10

	// snippetChars caps each content excerpt placed in a prompt.
	snippetChars = 500

	dateLayout  = "January 02, 2006"
	isoDate     = "2006-01-02"
	placeholder = "_Analysis unavailable: no language model response._"
)

// summarySection pulls the body of a "## Summary" section from a digest.
var summarySection = regexp.MustCompile(`(?s)## Summary\s+(.*?)(?:\n## |\z)`)

// DigestService compiles stored content into digests.
type DigestService struct {
	store    driven.ContentStore
	llm      driven.LLMService
	prompts  *prompts.Loader
	writer   driven.ArtifactWriter
	settings domain.LLMSettings

	// now is the clock; tests replace it.
	now func() time.Time
}

// NewDigestService creates a digest compiler. llm and writer may be nil.
func NewDigestService(
	store driven.ContentStore,
	llm driven.LLMService,
	loader *prompts.Loader,
	writer driven.ArtifactWriter,
	settings domain.LLMSettings,
) *DigestService {
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = domain.DefaultSettings().LLM.MaxTokens
	}
	return &DigestService{
		store:    store,
		llm:      llm,
		prompts:  loader,
		writer:   writer,
		settings: settings,
		now:      time.Now,
	}
}

// Generate dispatches on kind, filling defaults for missing options.
func (s *DigestService) Generate(ctx context.Context, kind domain.DigestKind, opts domain.DigestOptions) (*domain.DigestResult, error) {
	switch kind {
	case domain.DigestWeekly:
		end := opts.End
		if end.IsZero() {
			end = s.now()
		}
		return s.Weekly(ctx, end)
	case domain.DigestMonthly:
		year, month := opts.Year, opts.Month
		if year == 0 || month == 0 {
			prev := firstOfMonth(s.now()).AddDate(0, -1, 0)
			year, month = prev.Year(), prev.Month()
		}
		return s.Monthly(ctx, year, month)
	case domain.DigestTaskList:
		return s.TaskList(ctx)
	case domain.DigestTopic:
		return s.Topic(ctx, opts.Tag)
	case domain.DigestSuggestedReading:
		return s.SuggestedReading(ctx)
	case domain.DigestFull:
		return s.Full(ctx)
	default:
		return nil, fmt.Errorf("%w: digest kind %q", domain.ErrUnsupportedType, kind)
	}
}

// Weekly reports on [end-7d, end). When the week is empty it falls back to
// the most recent records so a digest is produced whenever content exists.
func (s *DigestService) Weekly(ctx context.Context, end time.Time) (*domain.DigestResult, error) {
	start := end.AddDate(0, 0, -7)
	content, err := s.store.ContentForPeriod(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("weekly digest: %w", err)
	}
	if len(content) == 0 {
		logger.Info("weekly digest: no content in window, using the %d most recent records", weeklyFallbackLimit)
		content, err = s.store.RecentContent(ctx, weeklyFallbackLimit)
		if err != nil {
			return nil, fmt.Errorf("weekly digest: %w", err)
		}
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: no content has been processed", domain.ErrNothingToReport)
	}

	period := fmt.Sprintf("%s to %s", start.Format(dateLayout), end.Format(dateLayout))

	var b strings.Builder
	b.WriteString("# Weekly Digest\n\n")
	fmt.Fprintf(&b, "**Period:** %s\n\n", period)

	body, ok := s.complete(ctx, "weekly_digest", s.prompts.Format(driven.PromptWeeklyDigest, period, contentList(content)))
	if ok {
		b.WriteString(body)
		b.WriteString("\n\n")
	} else {
		b.WriteString(basicWeeklyBody(content))
	}

	writeTopTags(&b, rankTags(content, weeklyTopTags))

	name := fmt.Sprintf("weekly_digest_%s_to_%s", start.Format(isoDate), end.Format(isoDate))
	return s.save(ctx, domain.DigestWeekly, b.String(), start, end, name)
}

// Monthly reports on a calendar month and recaps every weekly digest
// whose window intersects it.
func (s *DigestService) Monthly(ctx context.Context, year int, month time.Month) (*domain.DigestResult, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", domain.ErrInvalidInput, month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.now().Location())
	end := start.AddDate(0, 1, 0)
	label := start.Format("January 2006")

	content, err := s.store.ContentForPeriod(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("monthly digest: %w", err)
	}
	weeklies, err := s.store.DigestsInRange(ctx, domain.DigestWeekly, start, end)
	if err != nil {
		return nil, fmt.Errorf("monthly digest: %w", err)
	}
	if len(content) == 0 && len(weeklies) == 0 {
		return nil, fmt.Errorf("%w: nothing processed in %s", domain.ErrNothingToReport, label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Monthly Digest: %s\n\n", label)
	fmt.Fprintf(&b, "**Period:** %s to %s\n\n", start.Format(dateLayout), end.AddDate(0, 0, -1).Format(dateLayout))

	b.WriteString("## Monthly Summary\n\n")
	b.WriteString(s.monthlySummary(ctx, label, content))
	b.WriteString("\n\n")

	b.WriteString("## Trends & Patterns\n\n")
	b.WriteString(s.monthlyTrends(ctx, label, weeklies))
	b.WriteString("\n\n")

	b.WriteString("## Weekly Highlights\n\n")
	if len(weeklies) == 0 {
		b.WriteString("No weekly digests were generated this month.\n\n")
	}
	for i, w := range weeklies {
		fmt.Fprintf(&b, "### Week %d (%s to %s)\n\n", i+1, w.PeriodStart.Format(dateLayout), w.PeriodEnd.Format(dateLayout))
		b.WriteString(weeklyExcerpt(w.Body))
		b.WriteString("\n\n")
	}

	writeTopTags(&b, rankTags(content, monthlyTopTags))

	name := fmt.Sprintf("monthly_digest_%d_%02d_%s", year, int(month), month.String())
	return s.save(ctx, domain.DigestMonthly, b.String(), start, end, name)
}

func (s *DigestService) monthlySummary(ctx context.Context, label string, content []domain.ContentView) string {
	if len(content) == 0 {
		return "No content available for this month."
	}

	counts := make(map[domain.SourceKind]int)
	var kinds []domain.SourceKind
	for _, c := range content {
		if counts[c.Kind] == 0 {
			kinds = append(kinds, c.Kind)
		}
		counts[c.Kind]++
	}
	sort.SliceStable(kinds, func(i, j int) bool { return counts[kinds[i]] > counts[kinds[j]] })

	var overview strings.Builder
	fmt.Fprintf(&overview, "In %s, the following content was processed:\n", label)
	for _, k := range kinds {
		fmt.Fprintf(&overview, "- %s: %d\n", k, counts[k])
	}

	if narrative, ok := s.complete(ctx, "monthly_summary",
		s.prompts.Format(driven.PromptMonthlySummary, label, overview.String()+"\n"+contentList(content))); ok {
		return narrative
	}
	return strings.TrimRight(overview.String(), "\n")
}

func (s *DigestService) monthlyTrends(ctx context.Context, label string, weeklies []domain.Digest) string {
	if len(weeklies) < 2 {
		return "Insufficient data to analyze trends for this month."
	}
	var joined strings.Builder
	for i, w := range weeklies {
		fmt.Fprintf(&joined, "Week %d:\n%s\n\n", i+1, clip(w.Body, 2000))
	}
	if trends, ok := s.complete(ctx, "monthly_trends", s.prompts.Format(driven.PromptMonthlyTrends, label, joined.String())); ok {
		return trends
	}
	return placeholder
}

// TaskList lists active then completed tasks. An empty list still
// produces a digest.
func (s *DigestService) TaskList(ctx context.Context) (*domain.DigestResult, error) {
	tasks, err := s.store.Tasks(ctx, domain.TaskFilter{IncludeCompleted: true})
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	now := s.now()

	var b strings.Builder
	b.WriteString("# Task List\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(dateLayout))

	if len(tasks) == 0 {
		b.WriteString("## No Tasks Found\n\nNo tasks have been extracted from your notes yet.\n")
	} else {
		var active, done []domain.Task
		for _, t := range tasks {
			if t.Completed {
				done = append(done, t)
			} else {
				active = append(active, t)
			}
		}

		b.WriteString("## Active Tasks\n\n")
		if len(active) == 0 {
			b.WriteString("No active tasks.\n")
		}
		for _, t := range active {
			fmt.Fprintf(&b, "- [ ] %s", t.Text)
			if t.DueDate != nil {
				fmt.Fprintf(&b, " (Due: %s)", t.DueDate.Format(isoDate))
			}
			b.WriteString("\n")
		}

		if len(done) > 0 {
			b.WriteString("\n## Completed Tasks\n\n")
			for _, t := range done {
				fmt.Fprintf(&b, "- [x] ~~%s~~\n", t.Text)
			}
		}
	}

	name := "task_list_" + now.Format(isoDate)
	return s.save(ctx, domain.DigestTaskList, b.String(), now, now, name)
}

// Topic reports on one tag, or the most used tag when tag is empty.
func (s *DigestService) Topic(ctx context.Context, tag string) (*domain.DigestResult, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	if tag == "" {
		top, err := s.store.TopTags(ctx, 1, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("topic digest: %w", err)
		}
		if len(top) == 0 {
			return nil, fmt.Errorf("%w: no tags have been recorded", domain.ErrNothingToReport)
		}
		tag = top[0].Name
	}

	content, err := s.store.ContentByTag(ctx, tag, topicContentLimit)
	if err != nil {
		return nil, fmt.Errorf("topic digest: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: no content tagged #%s", domain.ErrNothingToReport, tag)
	}
	related, err := s.store.RelatedTags(ctx, tag, topicRelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("topic digest: %w", err)
	}

	now := s.now()
	var b strings.Builder
	fmt.Fprintf(&b, "# Topic Report: #%s\n\n", tag)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(dateLayout))

	b.WriteString("## Analysis\n\n")
	if analysis, ok := s.complete(ctx, "topic_analysis", s.prompts.Format(driven.PromptTopicAnalysis, tag, contentList(content))); ok {
		b.WriteString(analysis)
		b.WriteString("\n\n")
	} else {
		b.WriteString(basicTopicAnalysis(tag, content))
	}

	b.WriteString("## Related Content\n\n")
	for i, c := range content {
		if i == topicRelatedLimit {
			break
		}
		fmt.Fprintf(&b, "- %s (%s, %s)\n", c.Filename(), c.Kind, c.ProcessedAt.Format(isoDate))
	}
	b.WriteString("\n")

	if len(related) > 0 {
		b.WriteString("## Related Tags\n\n")
		for _, r := range related {
			fmt.Fprintf(&b, "- #%s (%d)\n", r.Name, r.Count)
		}
	}

	start, end := span(content)
	name := fmt.Sprintf("topic_%s_%s", safeName(tag), now.Format(isoDate))
	return s.save(ctx, domain.DigestTopic, b.String(), start, end, name)
}

// SuggestedReading asks the LLM for resources on the last 30 days of topics.
func (s *DigestService) SuggestedReading(ctx context.Context) (*domain.DigestResult, error) {
	now := s.now()
	since := now.Add(-readingWindow)

	tags, err := s.store.TopTags(ctx, readingTopics, since)
	if err != nil {
		return nil, fmt.Errorf("suggested reading: %w", err)
	}
	if len(tags) == 0 {
		recent, err := s.store.ContentForPeriod(ctx, since, now)
		if err != nil {
			return nil, fmt.Errorf("suggested reading: %w", err)
		}
		if len(recent) == 0 {
			return nil, fmt.Errorf("%w: no content in the last 30 days", domain.ErrNothingToReport)
		}
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNothingToReport, domain.ErrLLMUnavailable)
	}

	topics := make([]string, 0, len(tags))
	for _, t := range tags {
		topics = append(topics, t.Name)
	}
	topicList := strings.Join(topics, ", ")
	if topicList == "" {
		topicList = "general notes"
	}

	var b strings.Builder
	b.WriteString("# Suggested Reading\n\n")
	fmt.Fprintf(&b, "**Based on topics from:** %s to %s\n\n", since.Format(dateLayout), now.Format(dateLayout))
	if len(topics) > 0 {
		b.WriteString("## Your Recent Topics\n\n")
		for _, t := range tags {
			fmt.Fprintf(&b, "- #%s (%d)\n", t.Name, t.Count)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Recommendations\n\n")
	if recs, ok := s.complete(ctx, "suggested_reading", s.prompts.Format(driven.PromptSuggestedReading, topicList)); ok {
		b.WriteString(recs)
		b.WriteString("\n")
	} else {
		b.WriteString(placeholder + "\n")
	}

	name := "suggested_reading_" + now.Format(isoDate)
	return s.save(ctx, domain.DigestSuggestedReading, b.String(), since, now, name)
}

// Full concatenates every weekly digest in chronological order.
func (s *DigestService) Full(ctx context.Context) (*domain.DigestResult, error) {
	weeklies, err := s.store.Digests(ctx, domain.DigestWeekly)
	if err != nil {
		return nil, fmt.Errorf("full digest: %w", err)
	}
	if len(weeklies) == 0 {
		return nil, fmt.Errorf("%w: no weekly digests exist", domain.ErrNothingToReport)
	}
	sort.SliceStable(weeklies, func(i, j int) bool {
		return weeklies[i].PeriodStart.Before(weeklies[j].PeriodStart)
	})

	now := s.now()
	var b strings.Builder
	b.WriteString("# Full Digest\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(dateLayout))
	b.WriteString("## Table of Contents\n\n")
	for i, w := range weeklies {
		fmt.Fprintf(&b, "%d. [Week of %s](#week-%d)\n", i+1, w.PeriodStart.Format(dateLayout), i+1)
	}
	b.WriteString("\n")

	for i, w := range weeklies {
		fmt.Fprintf(&b, "<a id=\"week-%d\"></a>\n\n", i+1)
		fmt.Fprintf(&b, "## Week of %s\n\n", w.PeriodStart.Format(dateLayout))
		b.WriteString(demoteHeadings(w.Body))
		b.WriteString("\n\n---\n\n")
	}

	start := weeklies[0].PeriodStart
	end := weeklies[len(weeklies)-1].PeriodEnd
	name := "full_digest_" + now.Format(isoDate)
	return s.save(ctx, domain.DigestFull, b.String(), start, end, name)
}

// save persists the digest and writes its artifacts. An artifact failure
// is logged; the stored digest is still returned.
func (s *DigestService) save(
	ctx context.Context,
	kind domain.DigestKind,
	body string,
	start, end time.Time,
	name string,
) (*domain.DigestResult, error) {
	digest := domain.Digest{
		Kind:        kind,
		Body:        body,
		PeriodStart: start,
		PeriodEnd:   end,
		CreatedAt:   s.now(),
	}
	id, err := s.store.SaveDigest(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("save %s digest: %w", kind, err)
	}
	digest.ID = id
	metrics.RecordDigest(string(kind))

	result := &domain.DigestResult{Digest: digest}
	if s.writer != nil {
		paths, err := s.writer.Write(ctx, name, body)
		if err != nil {
			logger.Warn("digest %s: writing artifacts failed: %v", name, err)
		}
		result.Paths = paths
	}
	logger.Info("generated %s digest %s", kind, id)
	return result, nil
}

// complete runs one digest LLM call scaled by the analysis depth.
func (s *DigestService) complete(ctx context.Context, op, prompt string) (string, bool) {
	if s.llm == nil {
		return "", false
	}
	text, err := s.llm.Complete(ctx, driven.CompletionRequest{
		System:      s.prompts.Get(driven.PromptSystem),
		Prompt:      prompt,
		MaxTokens:   s.settings.Depth.Scale(s.settings.MaxTokens),
		Temperature: s.settings.Temperature,
	})
	metrics.RecordLLM(op, err)
	if err != nil {
		logger.Warn("digest: %s failed: %v", op, err)
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// rankTags counts tags across content. Ties keep first appearance when
// walking the content oldest first.
func rankTags(content []domain.ContentView, limit int) []domain.TagCount {
	counts := make(map[string]int)
	var order []string
	for i := len(content) - 1; i >= 0; i-- {
		for _, t := range content[i].Tags {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	ranked := make([]domain.TagCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, domain.TagCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func writeTopTags(b *strings.Builder, tags []domain.TagCount) {
	if len(tags) == 0 {
		return
	}
	b.WriteString("## Top Tags\n\n")
	for _, t := range tags {
		fmt.Fprintf(b, "- #%s (%d)\n", t.Name, t.Count)
	}
}

// contentList formats content as prompt input.
func contentList(content []domain.ContentView) string {
	var b strings.Builder
	for i, c := range content {
		fmt.Fprintf(&b, "%d. %s (%s, %s)", i+1, c.Filename(), c.Kind, c.ProcessedAt.Format(isoDate))
		if len(c.Tags) > 0 {
			fmt.Fprintf(&b, " tags: %s", strings.Join(c.Tags, ", "))
		}
		fmt.Fprintf(&b, "\n%s\n\n", clip(c.Text(), snippetChars))
	}
	return b.String()
}

func basicWeeklyBody(content []domain.ContentView) string {
	var b strings.Builder
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%d items were processed.\n\n", len(content))
	b.WriteString("## Content\n\n")
	for _, c := range content {
		fmt.Fprintf(&b, "### %s\n\n", c.Filename())
		fmt.Fprintf(&b, "*%s, %s*\n\n", c.Kind, c.ProcessedAt.Format(dateLayout))
		if text := clip(c.Text(), snippetChars); text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func basicTopicAnalysis(tag string, content []domain.ContentView) string {
	start, end := span(content)
	var b strings.Builder
	fmt.Fprintf(&b, "%d items are tagged #%s, processed between %s and %s.\n\n",
		len(content), tag, start.Format(dateLayout), end.Format(dateLayout))
	for i, c := range content {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(clip(c.Text(), 200), "\n", " "))
	}
	return b.String()
}

// weeklyExcerpt returns a weekly digest's summary section, or its first
// paragraph that is not a heading or period line.
func weeklyExcerpt(body string) string {
	if m := summarySection.FindStringSubmatch(body); m != nil {
		if text := strings.TrimSpace(m[1]); text != "" {
			return text
		}
	}
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") || strings.HasPrefix(para, "**Period:**") {
			continue
		}
		return para
	}
	return "No summary available."
}

// demoteHeadings pushes markdown headings one level down.
func demoteHeadings(body string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "#") {
			lines[i] = "#" + l
		}
	}
	return strings.Join(lines, "\n")
}

// span returns the earliest and latest processing times in content.
func span(content []domain.ContentView) (time.Time, time.Time) {
	var start, end time.Time
	for _, c := range content {
		if start.IsZero() || c.ProcessedAt.Before(start) {
			start = c.ProcessedAt
		}
		if c.ProcessedAt.After(end) {
			end = c.ProcessedAt
		}
	}
	return start, end
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// safeName makes a tag usable in a file name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
