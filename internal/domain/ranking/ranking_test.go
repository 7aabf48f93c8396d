package ranking_test

import (
	"errors"
	"testing"

	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRerank(t *testing.T) {
	Convey("Given rows whose order has changed", t, func() {
		rows := []model.LeaderboardRow{
			{BusinessID: 24, Rank: 1, WastePerEmployee: 1.8},
			{BusinessID: 21, Rank: 2, WastePerEmployee: 13.2},
			{BusinessID: 25, Rank: 3, WastePerEmployee: 4.1},
		}

		Convey("When reranked", func() {
			ranking.Rerank(rows)

			Convey("Then rows should be ordered and carry rank deltas", func() {
				So(rows[0].BusinessID, ShouldEqual, 24)
				So(rows[0].RankChange, ShouldEqual, 0)
				So(rows[1].BusinessID, ShouldEqual, 25)
				So(rows[1].PreviousRank, ShouldEqual, 3)
				So(rows[1].RankChange, ShouldEqual, 1)
				So(rows[2].BusinessID, ShouldEqual, 21)
				So(rows[2].Rank, ShouldEqual, 3)
				So(rows[2].RankChange, ShouldEqual, -1)
				So(ranking.Validate(rows), ShouldBeNil)
			})
		})
	})

	Convey("Given rows with equal waste per employee", t, func() {
		rows := []model.LeaderboardRow{
			{BusinessID: 9, Rank: 1, WastePerEmployee: 2},
			{BusinessID: 3, Rank: 2, WastePerEmployee: 2},
			{BusinessID: 5, Rank: 3, WastePerEmployee: 2},
		}

		Convey("When reranked", func() {
			ranking.Rerank(rows)

			Convey("Then ties should be broken by ascending business id", func() {
				So(rows[0].BusinessID, ShouldEqual, 3)
				So(rows[1].BusinessID, ShouldEqual, 5)
				So(rows[2].BusinessID, ShouldEqual, 9)
				So(rows[2].RankChange, ShouldEqual, -2)
			})
		})
	})

	Convey("Given a row without a prior rank", t, func() {
		rows := []model.LeaderboardRow{
			{BusinessID: 1, Rank: 1, WastePerEmployee: 5},
			{BusinessID: 2, WastePerEmployee: 1},
		}

		Convey("When reranked", func() {
			ranking.Rerank(rows)

			Convey("Then its previous rank and change should be zero", func() {
				So(rows[0].BusinessID, ShouldEqual, 2)
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].PreviousRank, ShouldEqual, 0)
				So(rows[0].RankChange, ShouldEqual, 0)
				So(rows[1].RankChange, ShouldEqual, -1)
			})
		})
	})

	Convey("Given an empty leaderboard", t, func() {
		var rows []model.LeaderboardRow
		So(func() { ranking.Rerank(rows) }, ShouldNotPanic)
		So(ranking.Validate(rows), ShouldBeNil)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a leaderboard with a rank gap", t, func() {
		rows := []model.LeaderboardRow{
			{BusinessID: 1, Rank: 1, WastePerEmployee: 1},
			{BusinessID: 2, Rank: 3, WastePerEmployee: 2},
		}
		So(errors.Is(ranking.Validate(rows), ranking.ErrInvariant), ShouldBeTrue)
	})

	Convey("Given a leaderboard out of order", t, func() {
		rows := []model.LeaderboardRow{
			{BusinessID: 1, Rank: 1, WastePerEmployee: 3},
			{BusinessID: 2, Rank: 2, WastePerEmployee: 2},
		}
		So(errors.Is(ranking.Validate(rows), ranking.ErrInvariant), ShouldBeTrue)
	})

	Convey("Given a row with an inconsistent rank change", t, func() {
		rows := []model.LeaderboardRow{
			{BusinessID: 1, Rank: 1, PreviousRank: 2, RankChange: 0, WastePerEmployee: 1},
		}
		So(errors.Is(ranking.Validate(rows), ranking.ErrInvariant), ShouldBeTrue)
	})
}
