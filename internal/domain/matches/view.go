package matches

import "github.com/preston-bernstein/racket-score-service/internal/scoring"

// GameDisplay carries the point labels ("0", "15", "30", "40", "AD") for each side.
type GameDisplay struct {
	SideA string `json:"sideA"`
	SideB string `json:"sideB"`
}

// View is the payload served to umpire and viewer clients.
type View struct {
	Match
	CurrentGameDisplay GameDisplay `json:"currentGameDisplay"`
	SetsWonA           int         `json:"setsWonA"`
	SetsWonB           int         `json:"setsWonB"`
}

// NewView decorates m with display fields.
func NewView(m Match) View {
	score := m.Score()
	a, b := score.CurrentGame.Display()
	return View{
		Match:              m,
		CurrentGameDisplay: GameDisplay{SideA: a, SideB: b},
		SetsWonA:           score.SetsWon(scoring.SideA),
		SetsWonB:           score.SetsWon(scoring.SideB),
	}
}

// NewViews decorates a list of matches.
func NewViews(items []Match) []View {
	out := make([]View, 0, len(items))
	for _, m := range items {
		out = append(out, NewView(m))
	}
	return out
}
