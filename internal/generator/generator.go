// Package generator runs a rating generation end to end: it reads result
// tables, scores and ranks athletes, and writes the published files.
package generator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odinsy/topheats-rating/internal/adapters/index"
	"github.com/odinsy/topheats-rating/internal/adapters/output"
	"github.com/odinsy/topheats-rating/internal/adapters/source"
	"github.com/odinsy/topheats-rating/internal/config"
	"github.com/odinsy/topheats-rating/internal/domain/anonymize"
	"github.com/odinsy/topheats-rating/internal/domain/dedupe"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/internal/domain/ranking"
	"github.com/odinsy/topheats-rating/internal/domain/scoring"
	"github.com/odinsy/topheats-rating/pkg/logger"
	"github.com/odinsy/topheats-rating/pkg/metrics"
)

const (
	lastUpdatedLayout = "2006-01-02T15:04:05"
	unknownLabel      = "unknown"
)

// Report describes one run.
type Report struct {
	RunID          string         `json:"run_id"`
	Files          int            `json:"files"`
	Rows           int            `json:"rows"`
	Skipped        map[string]int `json:"skipped,omitempty"`
	Duplicates     int            `json:"duplicates"`
	FilteredEvents int            `json:"filtered_events"`
	Athletes       int            `json:"athletes"`
	NoData         int            `json:"no_data"`
	Written        []string       `json:"written"`
	IndexRankings  int            `json:"index_rankings,omitempty"`
	Duration       time.Duration  `json:"duration_ns"`
}

// Generator runs rating generation for one configuration.
type Generator struct {
	cfg     config.Generator
	scorer  *scoring.Scorer
	log     logger.Logger
	console io.Writer
	now     func() time.Time
	runID   string
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithConsole prints the top of the rating to w.
func WithConsole(w io.Writer) Option {
	return func(g *Generator) {
		g.console = w
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithRunID sets the run identifier instead of a random one.
func WithRunID(id string) Option {
	return func(g *Generator) {
		if id != "" {
			g.runID = id
		}
	}
}

// New validates cfg and prepares a generator.
func New(cfg config.Generator, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:    cfg,
		scorer: scorer,
		log:    logger.NewNop(),
		now:    time.Now,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.String("run_id", g.runID))
	return g, nil
}

// Run reads the inputs, builds the rating and writes every configured output.
func (g *Generator) Run(ctx context.Context) (Report, error) {
	start := g.now()
	report := Report{RunID: g.runID}

	files, err := source.Collect(ctx, g.cfg.InputPaths)
	if err != nil {
		return report, fmt.Errorf("collect results: %w", err)
	}
	results := g.results(ctx, files, &report)

	entries, stats := ranking.Build(results, g.scorer, ranking.Options{
		AllowedGroups: g.cfg.AllowedEvents,
		AllowedYears:  g.cfg.AllowedYears,
		Sorting:       g.cfg.Sorting.Enabled,
	})
	report.FilteredEvents = stats.FilteredEvents
	report.Athletes = stats.Athletes
	for _, e := range entries {
		if e.Best.IsNoData() {
			report.NoData++
		}
	}
	metrics.RecordBestResultNoData(report.NoData)

	if err := g.write(ctx, entries, results, start, &report); err != nil {
		return report, err
	}

	if root := g.cfg.IndexRoot; root != "" {
		idx, err := index.Generate(root, start)
		if err != nil {
			return report, fmt.Errorf("generate index: %w", err)
		}
		report.IndexRankings = len(idx.Rankings)
		report.Written = append(report.Written, filepath.Join(root, index.FileName))
	}

	report.Duration = g.now().Sub(start)
	g.log.Info(ctx, "rating generated",
		logger.Int("files", report.Files),
		logger.Int("rows", report.Rows),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("athletes", report.Athletes),
		logger.Int("no_data", report.NoData),
		logger.Int("written", len(report.Written)),
		logger.Duration("took", report.Duration),
	)
	return report, nil
}

// results flattens parsed files into ranking results and counts skipped and
// duplicate rows. Duplicates are kept; ranking.Build lets the later one win.
func (g *Generator) results(ctx context.Context, files []source.File, report *Report) []ranking.Result {
	seen := dedupe.NewInMemoryDeduper()
	var out []ranking.Result

	report.Files = len(files)
	for _, f := range files {
		for reason, n := range f.Skipped {
			if report.Skipped == nil {
				report.Skipped = make(map[string]int)
			}
			report.Skipped[reason] += n
			for i := 0; i < n; i++ {
				metrics.RecordRowSkipped(reason)
			}
		}
		for _, r := range f.Rows {
			if seen.SeenAndRecord(ctx, dedupe.Key(r.Year, r.Event, r.Name)) {
				metrics.RecordRowDuplicate()
				g.log.Warn(ctx, "duplicate result; the later row wins",
					logger.String("file", f.Path),
					logger.Int("year", r.Year),
					logger.String("event", r.Event),
					logger.String("athlete", r.Name),
				)
			}
			out = append(out, ranking.Result{
				Year:      r.Year,
				Event:     r.Event,
				Name:      r.Name,
				BirthYear: r.BirthYear,
				Region:    r.Region,
				SportRank: r.SportRank,
				Place:     r.Place,
				Category:  r.Category,
			})
		}
	}
	report.Rows = len(out)
	report.Duplicates = int(seen.Duplicates())
	metrics.RecordRowsIngested(report.Rows)
	return out
}

// outputStep writes one file.
type outputStep struct {
	path  string
	write func(path string) error
}

// write produces every configured output file. Files with an empty name are
// skipped.
func (g *Generator) write(ctx context.Context, entries []ranking.Entry, results []ranking.Result, now time.Time, report *Report) error {
	out := g.cfg.Output
	ranked := entries
	if g.cfg.Anonymize.Enabled {
		ranked = anonymizeEntries(entries)
		results = anonymizeResults(results)
	}

	athletes := make([]model.Athlete, len(ranked))
	for i, e := range ranked {
		athletes[i] = e.Athlete
	}
	table := output.NewTable(out.Columns, model.CollectYears(athletes), out.TranslateColumns)

	save := func(s outputStep) error {
		if s.path == "" {
			return nil
		}
		if err := s.write(s.path); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
		}
		report.Written = append(report.Written, s.path)
		g.log.Debug(ctx, "output written", logger.String("path", s.path))
		return nil
	}

	steps := []outputStep{
		{out.Filename, func(p string) error { return output.WriteCSV(p, table, athletes) }},
		{g.jsonFilename(), func(p string) error {
			return output.WriteJSON(p, output.AthletesDocument(table.Headers, ranked))
		}},
		{out.RankingJSON, func(p string) error {
			doc := output.RankingDocument(table.Headers, entries,
				labelOr(g.cfg.Discipline), labelOr(g.cfg.Gender), now.Format(lastUpdatedLayout))
			if g.cfg.Anonymize.Enabled {
				doc = anonymize.Document(doc)
			}
			return output.WriteJSON(p, doc)
		}},
		{out.EventsJSON, func(p string) error { return output.WriteJSON(p, output.Events(results)) }},
	}
	if out.TopFilename != "" {
		top := topN(ranked, out.TopCount)
		topAthletes := athletes[:len(top)]
		steps = append(steps,
			outputStep{out.TopFilename, func(p string) error { return output.WriteCSV(p, table, topAthletes) }},
			outputStep{withExt(out.TopFilename, ".json"), func(p string) error {
				return output.WriteJSON(p, output.AthletesDocument(table.Headers, top))
			}},
		)
	}

	for _, s := range steps {
		if err := save(s); err != nil {
			return err
		}
	}

	if g.console != nil && out.ConsoleTop > 0 {
		if err := output.Console(g.console, table, athletes, out.ConsoleTop); err != nil {
			return err
		}
	}
	return nil
}

// jsonFilename defaults to the CSV name with a .json extension.
func (g *Generator) jsonFilename() string {
	if g.cfg.Output.JSONFilename != "" {
		return g.cfg.Output.JSONFilename
	}
	if g.cfg.Output.Filename == "" {
		return ""
	}
	return withExt(g.cfg.Output.Filename, ".json")
}

func anonymizeEntries(entries []ranking.Entry) []ranking.Entry {
	out := make([]ranking.Entry, len(entries))
	for i, e := range entries {
		e.Athlete = anonymize.Athlete(e.Athlete)
		out[i] = e
	}
	return out
}

func anonymizeResults(results []ranking.Result) []ranking.Result {
	out := make([]ranking.Result, len(results))
	for i, r := range results {
		r.Name = anonymize.ID(r.Name, r.BirthYear)
		r.BirthYear = 0
		out[i] = r
	}
	return out
}

func topN(entries []ranking.Entry, n int) []ranking.Entry {
	if n <= 0 || n > len(entries) {
		return entries
	}
	return entries[:n]
}

func withExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

func labelOr(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}

// SortedSkips returns skip reasons in name order, for stable reporting.
func (r Report) SortedSkips() []string {
	out := make([]string, 0, len(r.Skipped))
	for reason, n := range r.Skipped {
		out = append(out, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(out)
	return out
}
