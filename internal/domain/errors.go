package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game PIN maps to no live session.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrPlayerNotFound is returned when a client acts before joining.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrPlayerKicked is returned when a kicked client tries to rejoin.
	ErrPlayerKicked = errors.New("player was kicked from session")
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionEnded is returned for operations against a finished session.
	ErrSessionEnded = errors.New("session already ended")
	// ErrLateJoinDisabled is returned when a new player joins mid-game with
	// late join disabled in the session options.
	ErrLateJoinDisabled = errors.New("late join is disabled for this session")

	// ErrRejected marks expected no-op rejections (duplicate answer, stale
	// index, wrong state). Callers drop these silently.
	ErrRejected = errors.New("operation rejected")
	// ErrInconsistentState marks internal data inconsistencies (index out
	// of quiz bounds). The triggering operation aborts; session state is
	// left untouched.
	ErrInconsistentState = errors.New("inconsistent session state")
)
