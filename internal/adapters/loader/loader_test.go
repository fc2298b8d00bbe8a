package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/odinsy/topheats-rating/internal/adapters/loader"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const indexJSON = `{"last_updated":"2024-09-01T10:00:00.000000Z","rankings":[
 {"id":"fsr_cup_shortboard_men","path":"fsr/cup/shortboard/ranking_men.json","competition":"Cup","organizer":"FSR","discipline":"Короткая доска","gender":"Мужчины"}]}`

const rankingJSON = `{"headers":[],"athletes":[
 {"name":"Иванов Иван","rank":1,"region":"Калининград","total_points":100,
  "years":{"2023":{"year_total_points":100,"events":[{"event_name":"ЧР","place":1,"points":100}]}}}]}`

func writeTree(root string) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	dir := filepath.Join(root, "fsr", "cup", "shortboard")
	must(os.MkdirAll(dir, 0o755))
	must(os.WriteFile(filepath.Join(root, "index.json"), []byte(indexJSON), 0o600))
	must(os.WriteFile(filepath.Join(dir, "ranking_men.json"), []byte(rankingJSON), 0o600))
}

func exerciseLoader(l loader.Loader) {
	ctx := context.Background()

	Convey("When reading the index", func() {
		idx, err := l.Index(ctx)

		Convey("Then entries are returned", func() {
			So(err, ShouldBeNil)
			So(len(idx.Rankings), ShouldEqual, 1)
			So(idx.Rankings[0].ID, ShouldEqual, "fsr_cup_shortboard_men")
		})

		Convey("Then the ranking document loads", func() {
			doc, err := l.Document(ctx, idx.Rankings[0])
			So(err, ShouldBeNil)
			So(len(doc.Athletes), ShouldEqual, 1)
			So(doc.Athletes[0].Years[2023].Events[0].EventName, ShouldEqual, "ЧР")
		})
	})

	Convey("When a ranking file is missing", func() {
		_, err := l.Document(ctx, model.IndexEntry{ID: "x", Path: "nope/ranking_men.json"})

		Convey("Then ErrNotFound is returned", func() {
			So(errors.Is(err, loader.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestFileLoader(t *testing.T) {
	Convey("Given a data directory", t, func() {
		root := t.TempDir()
		writeTree(root)
		exerciseLoader(loader.NewFileLoader(root))

		Convey("When a path escapes the data dir", func() {
			_, err := loader.NewFileLoader(root).Document(context.Background(), model.IndexEntry{Path: "../../etc/passwd"})

			Convey("Then it is refused", func() {
				So(errors.Is(err, loader.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty directory", t, func() {
		_, err := loader.NewFileLoader(t.TempDir()).Index(context.Background())

		Convey("Then the missing index is reported", func() {
			So(errors.Is(err, loader.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestHTTPLoader(t *testing.T) {
	Convey("Given a static site serving rankings", t, func() {
		root := t.TempDir()
		writeTree(root)
		srv := httptest.NewServer(http.StripPrefix("/rating/", http.FileServer(http.Dir(root))))
		Reset(srv.Close)

		l, err := loader.NewHTTPLoader(srv.URL+"/rating", loader.WithTimeout(2*time.Second))
		So(err, ShouldBeNil)
		exerciseLoader(l)

		Convey("When index paths point outside the base url", func() {
			var hits atomic.Int32
			other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				_, _ = w.Write([]byte(rankingJSON))
			}))
			Reset(other.Close)

			for _, p := range []string{
				other.URL + "/secret.json",
				"//" + other.Listener.Addr().String() + "/secret.json",
				"../../index.json",
				"../rating-other/ranking_men.json",
			} {
				_, err := l.Document(context.Background(), model.IndexEntry{ID: "x", Path: p})
				So(errors.Is(err, loader.ErrNotFound), ShouldBeTrue)
			}

			Convey("Then nothing outside the base is requested", func() {
				So(int(hits.Load()), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an invalid base url", t, func() {
		_, err := loader.NewHTTPLoader("ftp://example.com")

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestWatcher(t *testing.T) {
	Convey("Given a watcher on a data directory", t, func() {
		root := t.TempDir()
		writeTree(root)

		calls := make(chan struct{}, 10)
		w := loader.NewWatcher(root, func(context.Context) { calls <- struct{}{} },
			loader.WithDebounce(50*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
		Reset(func() {
			cancel()
			<-done
		})
		time.Sleep(100 * time.Millisecond)

		Convey("When several JSON files change at once", func() {
			p := filepath.Join(root, "fsr", "cup", "shortboard", "ranking_men.json")
			for i := 0; i < 3; i++ {
				So(os.WriteFile(p, []byte(rankingJSON), 0o600), ShouldBeNil)
			}

			Convey("Then one reload is triggered", func() {
				select {
				case <-calls:
				case <-time.After(3 * time.Second):
					t.Fatal("no reload triggered")
				}
				select {
				case <-calls:
					t.Fatal("burst triggered more than one reload")
				case <-time.After(200 * time.Millisecond):
				}
			})
		})

		Convey("When a non-JSON file changes", func() {
			So(os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600), ShouldBeNil)

			Convey("Then nothing is triggered", func() {
				select {
				case <-calls:
					t.Fatal("unexpected reload")
				case <-time.After(200 * time.Millisecond):
				}
			})
		})
	})
}
