package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odinsy/topheats-rating/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleCSV = `Год|Событие|Дата|ФИО|Год рождения|Регион|Разряд|Место|Категория
2023|Кубок России|10.08.2023|Иванов Иван Иванович|12.03.1995|Калининград|КМС|1|Мужчины
2023|Кубок России|10.08.2023|Петров Петр|2001|Москва|1|dns|Мужчины
||||||||
abc|Кубок России|10.08.2023|Сидоров Олег|2001|Москва|1|3|Мужчины
`

const sampleHTML = `<html><body>
<table><tr><td>menu</td></tr></table>
<table>
  <tr><th>Год</th><th>Событие</th><th>ФИО</th><th>Год рождения</th><th>Регион</th><th>Разряд</th><th>Место</th></tr>
  <tr><td>2022</td><td>Чемпионат</td><td> Сидоров  Олег </td><td>1999-05-01</td><td>СПб</td><td>МС</td><td>2</td></tr>
  <tr><td>2022</td><td></td><td>Пустое Событие</td><td></td><td>СПб</td><td></td><td>4</td></tr>
</table>
</body></html>`

func TestCSVReader(t *testing.T) {
	Convey("Given a pipe-delimited results file", t, func() {
		f, err := source.NewCSVReader().Read(strings.NewReader(sampleCSV))

		Convey("Then valid rows are parsed and normalized", func() {
			So(err, ShouldBeNil)
			So(len(f.Rows), ShouldEqual, 2)
			So(f.Rows[0].Name, ShouldEqual, "Иванов Иван")
			So(f.Rows[0].BirthYear, ShouldEqual, 1995)
			So(f.Rows[0].Year, ShouldEqual, 2023)
			So(f.Rows[0].Category, ShouldEqual, "Мужчины")
			So(f.Rows[1].Place, ShouldEqual, "DNS")
			So(f.Rows[1].BirthYear, ShouldEqual, 2001)
		})

		Convey("Then rows with a bad year are skipped and counted", func() {
			So(f.Skipped[source.SkipBadYear], ShouldEqual, 1)
		})
	})

	Convey("Given a file without required columns", t, func() {
		_, err := source.NewCSVReader().Read(strings.NewReader("Год|ФИО\n2023|Иванов Иван\n"))

		Convey("Then ErrMissingColumns is returned", func() {
			So(errors.Is(err, source.ErrMissingColumns), ShouldBeTrue)
		})
	})

	Convey("Given an empty file", t, func() {
		_, err := source.NewCSVReader().Read(strings.NewReader(""))

		Convey("Then ErrMissingColumns is returned", func() {
			So(errors.Is(err, source.ErrMissingColumns), ShouldBeTrue)
		})
	})
}

func TestHTMLReader(t *testing.T) {
	Convey("Given an HTML page with a results table", t, func() {
		f, err := source.HTMLReader{}.Read(strings.NewReader(sampleHTML))

		Convey("Then the first matching table is parsed", func() {
			So(err, ShouldBeNil)
			So(len(f.Rows), ShouldEqual, 1)
			So(f.Rows[0].Name, ShouldEqual, "Сидоров Олег")
			So(f.Rows[0].BirthYear, ShouldEqual, 1999)
			So(f.Rows[0].SportRank, ShouldEqual, "МС")
			So(f.Skipped[source.SkipNoEvent], ShouldEqual, 1)
		})
	})

	Convey("Given an HTML page without a results table", t, func() {
		_, err := source.HTMLReader{}.Read(strings.NewReader("<table><tr><td>x</td></tr></table>"))

		Convey("Then ErrMissingColumns is returned", func() {
			So(errors.Is(err, source.ErrMissingColumns), ShouldBeTrue)
		})
	})
}

func TestBirthYear(t *testing.T) {
	Convey("Given birth dates in several forms", t, func() {
		So(source.BirthYear("01.02.1990"), ShouldEqual, 1990)
		So(source.BirthYear("1990-02-01"), ShouldEqual, 1990)
		So(source.BirthYear("01/02/1990"), ShouldEqual, 1990)
		So(source.BirthYear("1990 г.р."), ShouldEqual, 1990)
		So(source.BirthYear("неизвестно"), ShouldEqual, 0)
		So(source.BirthYear(""), ShouldEqual, 0)
	})
}

func TestCollect(t *testing.T) {
	Convey("Given a directory with CSV and HTML files", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "a.csv"), []byte(sampleCSV), 0o600), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "b.html"), []byte(sampleHTML), 0o600), ShouldBeNil)

		Convey("When collecting with overlapping patterns", func() {
			files, err := source.Collect(context.Background(),
				[]string{filepath.Join(dir, "*.csv"), filepath.Join(dir, "*")},
				source.WithConcurrency(2),
			)

			Convey("Then each file is read once in pattern order", func() {
				So(err, ShouldBeNil)
				So(len(files), ShouldEqual, 2)
				So(filepath.Base(files[0].Path), ShouldEqual, "a.csv")
				So(filepath.Base(files[1].Path), ShouldEqual, "b.html")
				So(len(files[1].Rows), ShouldEqual, 1)
			})
		})

		Convey("When nothing matches", func() {
			_, err := source.Collect(context.Background(), []string{filepath.Join(dir, "*.xls")})

			Convey("Then ErrNoInput is returned", func() {
				So(errors.Is(err, source.ErrNoInput), ShouldBeTrue)
			})
		})

		Convey("When a file is malformed", func() {
			So(os.WriteFile(filepath.Join(dir, "c.csv"), []byte("nope\n"), 0o600), ShouldBeNil)
			_, err := source.Collect(context.Background(), []string{filepath.Join(dir, "*.csv")})

			Convey("Then the error names the file", func() {
				So(errors.Is(err, source.ErrMissingColumns), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "c.csv")
			})
		})
	})
}
