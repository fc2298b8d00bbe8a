package smoke_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/odinsy/topheats-rating/internal/adapters/http/api"
	"github.com/odinsy/topheats-rating/internal/adapters/loader"
	app "github.com/odinsy/topheats-rating/internal/app"
	"github.com/odinsy/topheats-rating/internal/smoke"
	"github.com/odinsy/topheats-rating/pkg/logger"
)

const indexJSON = `{"last_updated":"2024-09-01T10:00:00.000000Z","rankings":[
 {"id":"fsr_cup_shortboard_men","path":"fsr/cup/shortboard/ranking_men.json","competition":"Cup","organizer":"FSR","discipline":"Короткая доска","gender":"Мужчины"}]}`

const rankingJSON = `{"headers":[],"athletes":[
 {"name":"Петров Петр","rank":2,"region":"Москва","total_points":80,
  "years":{"2022":{"year_total_points":80,"events":[{"event_name":"ЧР","place":2,"points":80}]}}},
 {"name":"Иванов Иван","rank":1,"region":"Калининград","total_points":100,
  "years":{"2023":{"year_total_points":100,"events":[{"event_name":"ЧР","place":1,"points":100}]}}},
 {"name":"Сидоров Олег","rank":3,"region":"Москва","total_points":0,
  "years":{"2023":{"year_total_points":0,"events":[{"event_name":"ЧР","place":"DNS","points":0}]}}}]}`

func init() {
	_ = logger.Init()
}

func writeTree(t *testing.T) string {
	root := t.TempDir()
	dir := filepath.Join(root, "fsr", "cup", "shortboard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "index.json"), []byte(indexJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ranking_men.json"), []byte(rankingJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server over a data directory", t, func() {
		ctx := context.Background()
		svc := app.New(loader.NewFileLoader(writeTree(t)))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		var (
			mu  sync.Mutex
			ids = map[string]bool{}
		)
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			ids[r.Header.Get(smoke.RequestIDHeader)] = true
			mu.Unlock()
			mux.ServeHTTP(w, r)
		}))
		convey.Reset(func() {
			srv.Close()
			svc.Stop()
		})

		convey.Convey("When the smoke check runs", func() {
			out := filepath.Join(t.TempDir(), "reports", "smoke.json")
			report, err := smoke.Run(ctx, smoke.Config{BaseURL: srv.URL, Output: out})

			convey.Convey("Then every athlete verifies", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Problems, convey.ShouldEqual, 0)
				convey.So(len(report.Rankings), convey.ShouldEqual, 1)
				convey.So(report.Rankings[0].Athletes, convey.ShouldEqual, 3)
				convey.So(report.Rankings[0].Checked, convey.ShouldEqual, 3)
			})

			convey.Convey("Then every request carries the run id", func() {
				mu.Lock()
				defer mu.Unlock()
				convey.So(len(ids), convey.ShouldEqual, 1)
				convey.So(ids[report.RequestID], convey.ShouldBeTrue)
			})

			convey.Convey("Then the report is saved", func() {
				_, err := os.Stat(out)
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When only a sample is checked", func() {
			report, err := smoke.Run(ctx, smoke.Config{BaseURL: srv.URL, Sample: 1})

			convey.Convey("Then one athlete per ranking is fetched", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Rankings[0].Checked, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestRunProblems(t *testing.T) {
	convey.Convey("Given a server reporting a wrong best result", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {})
		mux.HandleFunc("GET /rankings", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"rankings":[{"id":"r1"}]}`))
		})
		mux.HandleFunc("GET /rankings/r1", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id":"r1","count":2,"athletes":[
				{"rank":2,"name":"A B","best_result":{"place":1,"year":2023},"best_result_label":"1 в 2023"},
				{"rank":1,"name":"C D","best_result":null,"best_result_label":"Нет данных"}]}`))
		})
		mux.HandleFunc("GET /rankings/r1/athletes/{name}", func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("name") == "A B" {
				_, _ = w.Write([]byte(`{"rank":2,"name":"A B","best_result":{"place":1,"year":2023},"best_result_label":"1 в 2023",
					"years":{"2023":{"year_total_points":80,"events":[{"event_name":"ЧР","place":2,"points":80}]}}}`))
				return
			}
			_, _ = w.Write([]byte(`{"rank":1,"name":"C D","best_result":null,"best_result_label":"Нет данных"}`))
		})
		srv := httptest.NewServer(mux)
		convey.Reset(srv.Close)

		convey.Convey("When the smoke check runs", func() {
			report, err := smoke.Run(context.Background(), smoke.Config{BaseURL: srv.URL})

			convey.Convey("Then order and best result problems are reported", func() {
				convey.So(errors.Is(err, smoke.ErrProblems), convey.ShouldBeTrue)
				convey.So(report.Problems, convey.ShouldEqual, 2)
			})
		})
	})

	convey.Convey("Given a server with nothing loaded", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {})
		mux.HandleFunc("GET /rankings", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"rankings":[]}`))
		})
		srv := httptest.NewServer(mux)
		convey.Reset(srv.Close)

		_, err := smoke.Run(context.Background(), smoke.Config{BaseURL: srv.URL})
		convey.So(errors.Is(err, smoke.ErrNoRankings), convey.ShouldBeTrue)
	})

	convey.Convey("Given an unhealthy server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		convey.Reset(srv.Close)

		_, err := smoke.Run(context.Background(), smoke.Config{BaseURL: srv.URL})
		convey.So(errors.Is(err, smoke.ErrStatus), convey.ShouldBeTrue)
	})
}
