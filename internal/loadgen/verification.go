package loadgen

import "fmt"

// VerifyRanking checks that ranks are contiguous from 1, that scored entries
// come first in non-increasing score order, and that unscored entries follow.
func VerifyRanking(entries []Entry) error {
	seenUnscored := false
	var prev *float64
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: position %d has rank %d", ErrRankingOrder, i+1, e.Rank)
		}
		if e.MatchScore == nil {
			seenUnscored = true
			continue
		}
		if seenUnscored {
			return fmt.Errorf("%w: scored candidate %d after unscored ones", ErrRankingOrder, e.CandidateID)
		}
		if prev != nil && *e.MatchScore > *prev {
			return fmt.Errorf("%w: %.2f ranked below %.2f", ErrRankingOrder, *e.MatchScore, *prev)
		}
		prev = e.MatchScore
	}
	return nil
}
