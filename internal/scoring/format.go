package scoring

import "fmt"

const (
	KnockoutGamesToWinSet  = 6
	KnockoutSetsToWinMatch = 2
	KnockoutMaxSets        = 3

	GroupGamesToWinSet  = 8
	GroupSetsToWinMatch = 1
	GroupMaxSets        = 1

	// SetWinMargin applies to knockout sets only.
	SetWinMargin = 2
)

// Format is fixed when a match is created and never changes mid-match.
type Format struct {
	Knockout       bool `json:"isKnockout"`
	GamesToWinSet  int  `json:"gamesToWinSet"`
	SetsToWinMatch int  `json:"setsToWinMatch"`
	MaxSets        int  `json:"maxSets"`
}

// NewFormat derives the full format from the knockout flag.
func NewFormat(knockout bool) Format {
	if knockout {
		return Format{
			Knockout:       true,
			GamesToWinSet:  KnockoutGamesToWinSet,
			SetsToWinMatch: KnockoutSetsToWinMatch,
			MaxSets:        KnockoutMaxSets,
		}
	}
	return Format{
		GamesToWinSet:  GroupGamesToWinSet,
		SetsToWinMatch: GroupSetsToWinMatch,
		MaxSets:        GroupMaxSets,
	}
}

// Validate rejects formats that cannot produce a winner.
func (f Format) Validate() error {
	if f.GamesToWinSet <= 0 {
		return fmt.Errorf("%w: games to win set must be positive", ErrInvalidArgument)
	}
	if f.SetsToWinMatch <= 0 {
		return fmt.Errorf("%w: sets to win match must be positive", ErrInvalidArgument)
	}
	if f.MaxSets < f.SetsToWinMatch {
		return fmt.Errorf("%w: max sets %d below sets to win %d", ErrInvalidArgument, f.MaxSets, f.SetsToWinMatch)
	}
	if !f.Knockout && f.MaxSets != 1 {
		return fmt.Errorf("%w: group format plays a single set", ErrInvalidArgument)
	}
	return nil
}

func (f Format) setWon(s SetScore) bool {
	a, b := s.SideAGames, s.SideBGames
	lead := max(a, b)
	if lead < f.GamesToWinSet {
		return false
	}
	if !f.Knockout {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff >= SetWinMargin
}
