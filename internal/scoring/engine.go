package scoring

import "fmt"

// ApplyPoint returns the score after side wins (increment) or loses
// (decrement) one point. The input is never modified.
//
// Decrement only steps the side's point level back, floored at 0. It never
// reverses a game, set or match; full corrections go through history undo.
func ApplyPoint(state MatchScore, format Format, side Side, dir Direction) (MatchScore, error) {
	if !side.Valid() {
		return MatchScore{}, fmt.Errorf("%w: side %q", ErrInvalidArgument, side)
	}
	if !dir.Valid() {
		return MatchScore{}, fmt.Errorf("%w: direction %q", ErrInvalidArgument, dir)
	}
	if err := format.Validate(); err != nil {
		return MatchScore{}, err
	}
	if err := state.Validate(format); err != nil {
		return MatchScore{}, err
	}
	if state.Completed {
		return MatchScore{}, ErrMatchAlreadyCompleted
	}

	next := state.Clone()
	cur := next.CurrentGame.Points(side)

	if dir == Decrement {
		if cur > PointLove {
			next.CurrentGame = next.CurrentGame.with(side, cur-1)
		}
		return next, nil
	}

	opp := next.CurrentGame.Points(side.Opponent())
	switch {
	case cur == PointForty && opp == PointForty:
		next.CurrentGame = next.CurrentGame.with(side, PointAdvantage)
	case cur == PointForty && opp == PointAdvantage:
		next.CurrentGame = next.CurrentGame.with(side.Opponent(), PointForty)
	case cur == PointAdvantage || (cur == PointForty && opp < PointForty):
		winGame(&next, format, side)
	default:
		next.CurrentGame = next.CurrentGame.with(side, cur+1)
	}
	return next, nil
}

func winGame(m *MatchScore, format Format, side Side) {
	set := &m.Sets[m.CurrentSetIndex]
	if side == SideA {
		set.SideAGames++
	} else {
		set.SideBGames++
	}
	m.CurrentGame = GameScore{}

	if !format.setWon(*set) {
		return
	}
	set.Completed = true
	set.Winner = set.leader()

	if !format.Knockout {
		m.Completed = true
		m.Winner = set.Winner
		return
	}

	for _, s := range []Side{SideA, SideB} {
		if m.SetsWon(s) >= format.SetsToWinMatch {
			m.Completed = true
			m.Winner = s
			return
		}
	}
	if m.CurrentSetIndex+1 < format.MaxSets {
		m.CurrentSetIndex++
	}
}
