// Package ranking orders leaderboard rows and assigns their ranks.
package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/wastewise/internal/domain/model"
)

// ErrInvariant is returned by Validate when ranks are not a contiguous,
// correctly ordered permutation.
var ErrInvariant = errors.New("rank invariant violated")

// less orders by waste per employee ascending, then business id ascending.
func less(a, b model.LeaderboardRow) bool {
	if a.WastePerEmployee != b.WastePerEmployee {
		return a.WastePerEmployee < b.WastePerEmployee
	}
	return a.BusinessID < b.BusinessID
}

// Rerank sorts rows in place and rewrites Rank, PreviousRank and RankChange.
// A row whose Rank is 0 has no prior rank; it gets PreviousRank 0 and
// RankChange 0.
func Rerank(rows []model.LeaderboardRow) {
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })

	for i := range rows {
		newRank := i + 1
		prev := rows[i].Rank
		rows[i].PreviousRank = prev
		if prev > 0 {
			rows[i].RankChange = prev - newRank
		} else {
			rows[i].RankChange = 0
		}
		rows[i].Rank = newRank
	}
}

// Validate checks that rows carry ranks 1..N in slice order, that the order
// is ascending by waste per employee, and that every RankChange equals
// PreviousRank - Rank for rows with a prior rank.
func Validate(rows []model.LeaderboardRow) error {
	for i, r := range rows {
		if r.Rank != i+1 {
			return fmt.Errorf("%w: position %d has rank %d", ErrInvariant, i+1, r.Rank)
		}
		if i > 0 && less(r, rows[i-1]) {
			return fmt.Errorf("%w: business %d ranked below %d", ErrInvariant, rows[i-1].BusinessID, r.BusinessID)
		}
		if r.PreviousRank > 0 && r.RankChange != r.PreviousRank-r.Rank {
			return fmt.Errorf("%w: business %d rank change %d, want %d",
				ErrInvariant, r.BusinessID, r.RankChange, r.PreviousRank-r.Rank)
		}
	}
	return nil
}
