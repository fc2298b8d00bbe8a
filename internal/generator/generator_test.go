package generator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/odinsy/topheats-rating/internal/config"
	"github.com/odinsy/topheats-rating/internal/generator"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/internal/domain/scoring"
)

const resultsCSV = `Год|Событие|Дата|ФИО|Год рождения|Регион|Разряд|Место|Категория
2023|Кубок России|10.08.2023|Иванов Иван Иванович|1995|Калининград|КМС|1|Мужчины
2023|Кубок России|10.08.2023|Петров Петр|2001|Москва|1|2|Мужчины
2023|Кубок России|10.08.2023|Сидоров Олег|2000|Москва|1|DNS|Мужчины
abc|Кубок России|10.08.2023|Орлов Олег|2001|Москва|1|3|Мужчины
2023|Кубок России|10.08.2023|Петров Петр|2001|Москва|1|3|Мужчины
`

func readJSON(path string, v any) {
	b, err := os.ReadFile(path)
	So(err, ShouldBeNil)
	So(json.Unmarshal(b, v), ShouldBeNil)
}

func baseConfig(dir string) config.Generator {
	cfg := config.New(context.Background()).Generator
	cfg.InputPaths = []string{filepath.Join(dir, "in", "*.csv")}
	cfg.CurrentYear = 2023
	cfg.Output.Filename = filepath.Join(dir, "out", "rating.csv")
	cfg.Output.ConsoleTop = 2
	return cfg
}

func TestGeneratorRun(t *testing.T) {
	Convey("Given a results table", t, func() {
		dir := t.TempDir()
		So(os.MkdirAll(filepath.Join(dir, "in"), 0o755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "in", "cup.csv"), []byte(resultsCSV), 0o600), ShouldBeNil)

		now := time.Date(2024, 9, 1, 10, 30, 0, 0, time.UTC)
		cfg := baseConfig(dir)
		root := filepath.Join(dir, "site")
		cfg.Output.RankingJSON = filepath.Join(root, "fsr", "cup", "shortboard", "ranking_men.json")
		cfg.Output.TopFilename = filepath.Join(dir, "out", "top.csv")
		cfg.Output.TopCount = 1
		cfg.Output.EventsJSON = filepath.Join(dir, "out", "events.json")
		cfg.IndexRoot = root

		var console bytes.Buffer
		g, err := generator.New(cfg,
			generator.WithClock(func() time.Time { return now }),
			generator.WithConsole(&console),
			generator.WithRunID("run-1"),
		)
		So(err, ShouldBeNil)

		Convey("When the generator runs", func() {
			report, err := g.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the report counts rows, skips and duplicates", func() {
				So(report.RunID, ShouldEqual, "run-1")
				So(report.Files, ShouldEqual, 1)
				So(report.Rows, ShouldEqual, 4)
				So(report.Skipped["bad_year"], ShouldEqual, 1)
				So(report.SortedSkips(), ShouldResemble, []string{"bad_year=1"})
				So(report.Duplicates, ShouldEqual, 1)
				So(report.Athletes, ShouldEqual, 3)
				So(report.NoData, ShouldEqual, 1)
				So(report.IndexRankings, ShouldEqual, 1)
			})

			Convey("Then the CSV and its JSON sibling are written", func() {
				csv, err := os.ReadFile(cfg.Output.Filename)
				So(err, ShouldBeNil)
				So(string(csv), ShouldContainSubstring, "Иванов Иван")

				var doc model.AthletesDocument
				readJSON(filepath.Join(dir, "out", "rating.json"), &doc)
				So(len(doc.Athletes), ShouldEqual, 3)
				So(doc.Athletes[0].Name, ShouldEqual, "Иванов Иван")
				So(doc.Athletes[0].TotalPoints, ShouldEqual, 100)
				So(doc.Athletes[0].BestResult, ShouldNotBeNil)
			})

			Convey("Then the later duplicate row wins", func() {
				var doc model.AthletesDocument
				readJSON(filepath.Join(dir, "out", "rating.json"), &doc)
				So(doc.Athletes[1].Name, ShouldEqual, "Петров Петр")
				So(doc.Athletes[1].TotalPoints, ShouldEqual, 65)
			})

			Convey("Then the ranking document carries labels and the run time", func() {
				var doc model.RankingDocument
				readJSON(cfg.Output.RankingJSON, &doc)
				So(doc.Rankings.Discipline, ShouldEqual, "unknown")
				So(doc.Rankings.Gender, ShouldEqual, "unknown")
				So(doc.Rankings.LastUpdated, ShouldEqual, "2024-09-01T10:30:00")
				So(len(doc.Rankings.OverallRanking), ShouldEqual, 3)
			})

			Convey("Then the top files hold TopCount athletes", func() {
				var doc model.AthletesDocument
				readJSON(filepath.Join(dir, "out", "top.json"), &doc)
				So(len(doc.Athletes), ShouldEqual, 1)
				_, err := os.Stat(cfg.Output.TopFilename)
				So(err, ShouldBeNil)
			})

			Convey("Then events and the index are written", func() {
				_, err := os.Stat(cfg.Output.EventsJSON)
				So(err, ShouldBeNil)
				var idx model.Index
				readJSON(filepath.Join(root, "index.json"), &idx)
				So(len(idx.Rankings), ShouldEqual, 1)
				So(idx.Rankings[0].ID, ShouldEqual, "fsr_cup_shortboard_men")
			})

			Convey("Then the console shows the top", func() {
				So(console.String(), ShouldContainSubstring, "Иванов Иван")
			})
		})
	})
}

func TestGeneratorAnonymize(t *testing.T) {
	Convey("Given anonymization is enabled", t, func() {
		dir := t.TempDir()
		So(os.MkdirAll(filepath.Join(dir, "in"), 0o755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "in", "cup.csv"), []byte(resultsCSV), 0o600), ShouldBeNil)

		cfg := baseConfig(dir)
		cfg.Anonymize.Enabled = true
		cfg.Output.RankingJSON = filepath.Join(dir, "out", "ranking_men.json")
		cfg.Output.EventsJSON = filepath.Join(dir, "out", "events.json")
		g, err := generator.New(cfg)
		So(err, ShouldBeNil)

		Convey("When the generator runs", func() {
			_, err := g.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then no written file contains a real name", func() {
				for _, p := range []string{
					cfg.Output.Filename,
					filepath.Join(dir, "out", "rating.json"),
					cfg.Output.RankingJSON,
					cfg.Output.EventsJSON,
				} {
					b, err := os.ReadFile(p)
					So(err, ShouldBeNil)
					So(strings.Contains(string(b), "Иванов"), ShouldBeFalse)
				}
			})
		})
	})
}

func TestGeneratorErrors(t *testing.T) {
	Convey("Given an invalid configuration", t, func() {
		cfg := config.New(context.Background()).Generator

		Convey("Then New fails validation", func() {
			_, err := generator.New(cfg)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given an unknown scoring system without tables", t, func() {
		cfg := config.New(context.Background()).Generator
		cfg.InputPaths = []string{"x.csv"}
		cfg.ScoringSystem = "olympic"

		Convey("Then New reports it", func() {
			_, err := generator.New(cfg)
			So(errors.Is(err, generator.ErrUnknownScoring), ShouldBeTrue)
		})
	})

	Convey("Given input patterns matching nothing", t, func() {
		cfg := baseConfig(t.TempDir())
		g, err := generator.New(cfg)
		So(err, ShouldBeNil)

		Convey("Then Run fails without writing", func() {
			report, err := g.Run(context.Background())
			So(err, ShouldNotBeNil)
			So(report.Written, ShouldBeEmpty)
		})
	})
}

func TestNewScorer(t *testing.T) {
	Convey("Given configured event groups and a scoring table", t, func() {
		cfg := config.New(context.Background()).Generator
		cfg.ScoringSystem = "custom"
		cfg.Scoring = map[string]map[string]float64{"custom": {"1": 50, "2-4": 20}}
		cfg.EventGroups = map[string]config.EventGroup{
			"national": {Coefficient: 2, Events: []string{"Чемпионат России"}, Order: 1},
		}

		s, err := generator.NewScorer(cfg)
		So(err, ShouldBeNil)

		Convey("Then matching events use the group coefficient", func() {
			So(s.Group("Чемпионат России 2023"), ShouldEqual, "national")
			So(s.Group("Кубок"), ShouldEqual, scoring.DefaultGroup)
		})
	})
}
