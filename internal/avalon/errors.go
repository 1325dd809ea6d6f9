package avalon

import "errors"

var (
	// ErrInvalidPlayerCount is returned when a game is started with fewer
	// than 5 or more than 10 players.
	ErrInvalidPlayerCount = errors.New("player count must be between 5 and 10")

	// ErrConfiguration indicates a hole in the static role or round tables.
	// It means a data-table bug, not bad input.
	ErrConfiguration = errors.New("invalid game configuration")

	// ErrIllegalMove is returned for any operation that is not legal in the
	// current phase or for the current actor: wrong phase, wrong player,
	// duplicate vote, malformed team.
	ErrIllegalMove = errors.New("illegal move")

	// ErrUnknownParticipant is returned when an id does not belong to any
	// seated player.
	ErrUnknownParticipant = errors.New("unknown participant")
)
