package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/odinsy/topheats-rating/pkg/logger"
)

const resultsCSV = `Год|Событие|Дата|ФИО|Год рождения|Регион|Разряд|Место|Категория
2023|Кубок России|10.08.2023|Иванов Иван|1995|Калининград|КМС|1|Мужчины
2023|Кубок России|10.08.2023|Петров Петр|2001|Москва|1|2|Мужчины
`

func TestRun(t *testing.T) {
	_ = logger.Init()

	convey.Convey("Given a config file and a results table", t, func() {
		dir := t.TempDir()
		in := filepath.Join(dir, "cup.csv")
		root := filepath.Join(dir, "rankings")
		rankingPath := filepath.Join(root, "fsr", "cup", "shortboard", "ranking_men.json")
		cfgPath := filepath.Join(dir, "config.yaml")
		yaml := "generator:\n" +
			"  input_paths: [\"" + in + "\"]\n" +
			"  output:\n" +
			"    filename: \"" + filepath.Join(dir, "rating.csv") + "\"\n" +
			"    ranking_json: \"" + rankingPath + "\"\n"
		convey.So(os.WriteFile(in, []byte(resultsCSV), 0o600), convey.ShouldBeNil)
		convey.So(os.WriteFile(cfgPath, []byte(yaml), 0o600), convey.ShouldBeNil)

		convey.Convey("When generating with an index root", func() {
			err := run(context.Background(), []string{cfgPath}, root, false, true)

			convey.Convey("Then the rating and the index are written", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, p := range []string{
					filepath.Join(dir, "rating.csv"),
					filepath.Join(dir, "rating.json"),
					rankingPath,
					filepath.Join(root, "index.json"),
				} {
					_, err := os.Stat(p)
					convey.So(err, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When only the index is requested", func() {
			convey.So(os.MkdirAll(filepath.Dir(rankingPath), 0o755), convey.ShouldBeNil)
			convey.So(os.WriteFile(rankingPath, []byte(`{}`), 0o600), convey.ShouldBeNil)
			err := run(context.Background(), nil, root, true, true)

			convey.Convey("Then no rating is generated", func() {
				convey.So(err, convey.ShouldBeNil)
				_, err := os.Stat(filepath.Join(dir, "rating.csv"))
				convey.So(os.IsNotExist(err), convey.ShouldBeTrue)
				_, err = os.Stat(filepath.Join(root, "index.json"))
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When -index-only has no root", func() {
			convey.So(run(context.Background(), nil, "", true, true), convey.ShouldNotBeNil)
		})
	})
}
