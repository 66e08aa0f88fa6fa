package game

import "errors"

// Request-level rejections. All of these surface as user-facing messages and
// leave table and ledger state unchanged.
var (
	// ErrTableOpen indicates an open request while a table already exists.
	ErrTableOpen = errors.New("game: a table is already open")

	// ErrNoActiveLobby indicates a join or action with no table in the
	// right state to receive it.
	ErrNoActiveLobby = errors.New("game: no active lobby")

	// ErrInvalidBet indicates a non-positive bet amount.
	ErrInvalidBet = errors.New("game: invalid bet amount")

	// ErrAlreadySeated indicates a duplicate join by the same identity.
	ErrAlreadySeated = errors.New("game: already seated at the table")

	// ErrOutOfTurn indicates an action from an identity that is not the
	// current actor.
	ErrOutOfTurn = errors.New("game: not your turn")

	// ErrIllegalAction indicates an action whose preconditions do not hold,
	// such as doubling a three-card hand or splitting unequal ranks.
	ErrIllegalAction = errors.New("game: action not allowed on this hand")
)
