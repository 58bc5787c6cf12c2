package results

// PlayStatus is the backend's schedule status code.
type PlayStatus int

const (
	PlayStatusPending    PlayStatus = 0
	PlayStatusInProgress PlayStatus = 1
	PlayStatusCompleted  PlayStatus = 2
)

// MatchResult is the backend's outcome code.
type MatchResult int

const (
	MatchResultNotUploaded MatchResult = 0
	MatchResultTeamAWon    MatchResult = 1
	MatchResultTeamBWon    MatchResult = 2
	MatchResultTied        MatchResult = 3
	MatchResultNoResult    MatchResult = 4
)

const (
	// gameTypeSet marks a row as a set score.
	gameTypeSet = 1
	// reportedRounds is how many set rows the backend expects per player.
	reportedRounds = 3
)
