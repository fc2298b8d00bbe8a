package anonymize_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/odinsy/topheats-rating/internal/domain/anonymize"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func expected(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "athlete_" + hex.EncodeToString(sum[:])[:12]
}

func TestID(t *testing.T) {
	Convey("Given an athlete name and birth year", t, func() {
		id := anonymize.ID("Иванов Иван", 1995)

		Convey("Then the id hashes the lower-cased surname, first name and year", func() {
			So(id, ShouldEqual, expected("иванов_иван_1995"))
			So(len(id), ShouldEqual, len("athlete_")+12)
		})

		Convey("Then case does not matter", func() {
			So(anonymize.ID("ИВАНОВ ИВАН", 1995), ShouldEqual, id)
		})

		Convey("Then a missing birth year hashes as empty", func() {
			So(anonymize.ID("Иванов Иван", 0), ShouldEqual, expected("иванов_иван_"))
		})
	})
}

func TestDocument(t *testing.T) {
	Convey("Given a ranking document", t, func() {
		doc := model.RankingDocument{Rankings: model.RankingData{
			OverallRanking: []model.OverallEntry{{Rank: 1, Name: "Иванов Иван", BirthYear: 1995}},
			YearRankings: map[string]model.YearRanking{
				"2023": {Athletes: []model.YearRankingEntry{{Rank: 1, Name: "Иванов Иван"}}},
			},
		}}

		out := anonymize.Document(doc)

		Convey("Then overall and year entries share the same id", func() {
			id := out.Rankings.OverallRanking[0].Name
			So(strings.HasPrefix(id, "athlete_"), ShouldBeTrue)
			So(out.Rankings.OverallRanking[0].BirthYear, ShouldEqual, 0)
			So(out.Rankings.YearRankings["2023"].Athletes[0].Name, ShouldEqual, id)
		})

		Convey("Then the input is left untouched", func() {
			So(doc.Rankings.OverallRanking[0].Name, ShouldEqual, "Иванов Иван")
			So(doc.Rankings.YearRankings["2023"].Athletes[0].Name, ShouldEqual, "Иванов Иван")
		})
	})

	Convey("Given a single athlete", t, func() {
		a := anonymize.Athlete(model.Athlete{Name: "Петров Петр", BirthYear: 2001, Region: "Москва"})

		Convey("Then the name is replaced and the birth year dropped", func() {
			So(a.Name, ShouldEqual, anonymize.ID("Петров Петр", 2001))
			So(a.BirthYear, ShouldEqual, 0)
			So(a.Region, ShouldEqual, "Москва")
		})
	})
}
