package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGameNotFound is returned when no game exists for an id or PIN.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameNotActive is returned when acting on a completed or expired game.
	ErrGameNotActive = errors.New("game is not active")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in game")
	// ErrNotHost is returned when a player attempts a host-only action.
	ErrNotHost = errors.New("participant is not the host of the game")
	// ErrNicknameTaken is returned when a player joins with a nickname already in use.
	ErrNicknameTaken = errors.New("nickname already taken")
	// ErrInvalidNickname is returned for blank or overlong nicknames.
	ErrInvalidNickname = errors.New("invalid nickname")
	// ErrPINInUse is returned by repositories when a new game collides with a live PIN.
	ErrPINInUse = errors.New("game pin already in use")
	// ErrInvalidGameMode is returned for unknown modes or a mode the quiz questions cannot be scored in.
	ErrInvalidGameMode = errors.New("invalid game mode")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a task refers to a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrIllegalTaskType is matched by IllegalTaskTypeError.
	ErrIllegalTaskType = errors.New("illegal task type")
	// ErrIllegalTaskStatus is returned when an action needs a different task status.
	ErrIllegalTaskStatus = errors.New("illegal task status")
	// ErrInvalidAnswer is returned when an answer does not match the question type.
	ErrInvalidAnswer = errors.New("answer does not match question type")
	// ErrConcurrentUpdate signals that another writer changed the game first; callers retry.
	ErrConcurrentUpdate = errors.New("concurrent game update")
	// ErrUnknownTaskType indicates a task variant that is not wired in.
	ErrUnknownTaskType = errors.New("unknown task type")
	// ErrUnknownQuestionType indicates a question variant that is not wired in.
	ErrUnknownQuestionType = errors.New("unknown question type")
)

// IllegalTaskTypeError reports an operation invoked against the wrong current task.
type IllegalTaskTypeError struct {
	Expected []TaskType
	Actual   TaskType
}

func (e *IllegalTaskTypeError) Error() string {
	return fmt.Sprintf("illegal task type %q, expected one of %v", e.Actual, e.Expected)
}

func (e *IllegalTaskTypeError) Is(target error) bool {
	return target == ErrIllegalTaskType
}

// NewIllegalTaskTypeError builds an IllegalTaskTypeError for the given current task.
func NewIllegalTaskTypeError(actual Task, expected ...TaskType) error {
	var typ TaskType
	if actual != nil {
		typ = actual.Type()
	}
	return &IllegalTaskTypeError{Expected: expected, Actual: typ}
}
