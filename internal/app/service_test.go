package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repository "github.com/odinsy/topheats-rating/internal/adapters/repository"
	service "github.com/odinsy/topheats-rating/internal/app"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func years(places map[int]string) model.Years {
	out := make(model.Years, len(places))
	for year, place := range places {
		out[year] = model.YearRecord{Events: model.EventList{{EventName: "ЧР", Place: model.NewPlace(place)}}}
	}
	return out
}

// stubLoader serves documents from memory.
type stubLoader struct {
	mu      sync.Mutex
	index   model.Index
	docs    map[string]model.Document
	fail    map[string]error
	idxErr  error
	indexes int
}

func (l *stubLoader) Index(context.Context) (model.Index, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.indexes++
	return l.index, l.idxErr
}

func (l *stubLoader) Document(_ context.Context, e model.IndexEntry) (model.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fail[e.ID]; err != nil {
		return model.Document{}, err
	}
	return l.docs[e.ID], nil
}

func (l *stubLoader) set(fn func(l *stubLoader)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l)
}

func (l *stubLoader) indexCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.indexes
}

func newStub() *stubLoader {
	return &stubLoader{
		index: model.Index{Rankings: []model.IndexEntry{
			{ID: "men", Path: "a/ranking_men.json", Gender: "Мужчины"},
			{ID: "women", Path: "a/ranking_women.json", Gender: "Женщины"},
		}},
		docs: map[string]model.Document{
			"men": {Discipline: "shortboard", Gender: "men", Athletes: []model.Athlete{
				{Name: "Петров Петр", Rank: 2, Region: "Москва", TotalPoints: 80, Years: years(map[int]string{2023: "2"})},
				{Name: "Иванов Иван", Rank: 1, Region: "Калининград", TotalPoints: 100, Years: years(map[int]string{2022: "3", 2023: "1"})},
				{Name: "Сидоров Сидор", Rank: 3, Region: "калининград", TotalPoints: 0, Years: years(map[int]string{2022: "DNS"})},
				{Name: "Без Места", Rank: 0, Region: "Москва"},
			}},
			"women": {Athletes: []model.Athlete{
				{Name: "Смирнова Анна", Rank: 1, Region: "Москва", TotalPoints: 65, Years: years(map[int]string{2021: "2", 2023: "2"})},
			}},
		},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(newStub())

		Convey("Then it should not be started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("And Reload is refused", func() {
			_, err := svc.Reload(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a service without a source", t, func() {
		svc := service.New(nil)

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Queries(t *testing.T) {
	Convey("Given a started service", t, func() {
		stub := newStub()
		svc := service.New(stub,
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithTopLimit(2),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When listing rankings", func() {
			list, err := svc.Rankings(ctx)

			Convey("Then both index entries are loaded in ID order", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, "men")
				So(list[1].ID, ShouldEqual, "women")
			})
		})

		Convey("When reading a ranking", func() {
			r, err := svc.Ranking(ctx, "men", model.RankingFilter{})

			Convey("Then athletes are ordered by rank with best results attached", func() {
				So(err, ShouldBeNil)
				So(r.Discipline, ShouldEqual, "shortboard")
				So(r.Years, ShouldResemble, []int{2022, 2023})
				So(r.Athletes[0].Name, ShouldEqual, "Иванов Иван")
				So(r.Athletes[0].Best, ShouldEqual, model.NewBestResult(1, 2023))
				So(r.Athletes[2].Best.IsNoData(), ShouldBeTrue)
				So(r.Athletes[3].Name, ShouldEqual, "Без Места")
			})
		})

		Convey("When the document has no discipline", func() {
			r, err := svc.Ranking(ctx, "women", model.RankingFilter{})

			Convey("Then the index entry fills it in", func() {
				So(err, ShouldBeNil)
				So(r.Gender, ShouldEqual, "Женщины")
				So(r.Athletes[0].Best, ShouldEqual, model.NewBestResult(2, 2023))
			})
		})

		Convey("When filtering a ranking", func() {
			byRegion, _ := svc.Ranking(ctx, "men", model.RankingFilter{Region: "КАЛИНИНГРАД"})
			byYear, _ := svc.Ranking(ctx, "men", model.RankingFilter{Year: 2022})
			limited, _ := svc.Ranking(ctx, "men", model.RankingFilter{Limit: 1})

			Convey("Then only matching athletes remain", func() {
				So(len(byRegion.Athletes), ShouldEqual, 2)
				So(len(byYear.Athletes), ShouldEqual, 2)
				So(len(limited.Athletes), ShouldEqual, 1)
				So(limited.Athletes[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When asking for the top", func() {
			top, err := svc.Top(ctx, "men", 0)
			all, _ := svc.Top(ctx, "men", 10)

			Convey("Then the default limit applies and unranked athletes are left out", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[1].Name, ShouldEqual, "Петров Петр")
				So(len(all), ShouldEqual, 3)
			})
		})

		Convey("When looking up athletes", func() {
			a, err := svc.Athlete(ctx, "men", " Иванов Иван ")
			_, missing := svc.Athlete(ctx, "men", "Никто")
			_, unknown := svc.Ranking(ctx, "juniors", model.RankingFilter{})

			Convey("Then known names resolve and others are not found", func() {
				So(err, ShouldBeNil)
				So(a.Region, ShouldEqual, "Калининград")
				So(errors.Is(missing, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(unknown, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a ranking is removed from the index", func() {
			stub.set(func(l *stubLoader) { l.index.Rankings = l.index.Rankings[:1] })
			report, err := svc.Reload(ctx)

			Convey("Then it is pruned", func() {
				So(err, ShouldBeNil)
				So(report.Rankings, ShouldEqual, 1)
				So(report.Loaded, ShouldEqual, 1)
				So(report.Pruned, ShouldEqual, 1)
				So(svc.GetStats()["rankings"], ShouldEqual, 1)
			})
		})

		Convey("When a document fails to load", func() {
			boom := errors.New("boom")
			stub.set(func(l *stubLoader) { l.fail = map[string]error{"women": boom} })
			report, err := svc.Reload(ctx)

			Convey("Then the error is reported and the other ranking still loads", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(report.Loaded, ShouldEqual, 1)
				So(report.Failed, ShouldEqual, 1)
				So(svc.GetStats()["lastReloadError"], ShouldContainSubstring, "boom")
			})
		})

		Convey("When the index cannot be read", func() {
			stub.set(func(l *stubLoader) { l.idxErr = errors.New("offline") })
			_, err := svc.Reload(ctx)
			list, _ := svc.Rankings(ctx)

			Convey("Then previously loaded rankings stay available", func() {
				So(err, ShouldNotBeNil)
				So(len(list), ShouldEqual, 2)
			})
		})
	})
}

func TestService_ReloadInterval(t *testing.T) {
	Convey("Given a service with a short reload interval", t, func() {
		stub := newStub()
		svc := service.New(stub, service.WithWorkerCount(1), service.WithReloadInterval(20*time.Millisecond))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When time passes", func() {
			deadline := time.Now().Add(2 * time.Second)
			for stub.indexCalls() < 3 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			svc.Stop()

			Convey("Then the index is read again", func() {
				So(stub.indexCalls(), ShouldBeGreaterThanOrEqualTo, 3)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}
