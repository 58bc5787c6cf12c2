package players

// Player is a rostered player as known to the tournament backend.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
