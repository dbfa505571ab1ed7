package staircase

import (
	"errors"
	"fmt"
	"strings"
)

// BelowMinimumLabel is reported when the easiest level is failed.
const BelowMinimumLabel = "below minimum"

var (
	ErrEmptyLadder       = errors.New("ladder has no levels")
	ErrInvalidAlphabet   = errors.New("invalid stimulus alphabet")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrInvalidAnswer     = errors.New("answer is not one of the current options")
	ErrNoStimulus        = errors.New("running session has no open stimulus")
)

// OutOfRangeError reports a ladder lookup outside [0, Len).
// It signals a programming error: the state machine never produces such a rank.
type OutOfRangeError struct {
	Rank int
	Len  int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("staircase: rank %d out of range [0, %d)", e.Rank, e.Len)
}

// InvalidAnswerError is returned when an answer is not among the open stimulus options.
// The session is left untouched and the caller should prompt again.
type InvalidAnswerError struct {
	Answer  string
	Options []string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("staircase: answer %q not in options [%s]", e.Answer, strings.Join(e.Options, ", "))
}

func (e *InvalidAnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}
