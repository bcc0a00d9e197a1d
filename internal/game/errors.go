package game

import (
	"errors"
	"fmt"
)

// Domain errors. Callers match them with errors.Is.
var (
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidLength     = errors.New("invalid word length")
	ErrNotInDictionary   = errors.New("word not in dictionary")
	ErrSessionTerminal   = errors.New("session already finished")
	ErrSessionNotFound   = errors.New("session not found")
)

// ErrDifficultyNotFound is returned by catalogs for unknown difficulty IDs.
var ErrDifficultyNotFound = errors.New("difficulty not found")

// ErrCollaborator matches any *CollaboratorError.
var ErrCollaborator = errors.New("collaborator failure")

// ErrSecretMismatch is reported (wrapped in a CollaboratorError) when the
// catalog hands out a secret whose length differs from the difficulty's.
var ErrSecretMismatch = errors.New("secret word length does not match difficulty")

// CollaboratorError marks a failure of the repository, catalog or dictionary,
// as opposed to a problem with the caller's input.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCollaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }

// Collaborator wraps err as a CollaboratorError for op. Nil stays nil.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Op: op, Err: err}
}
