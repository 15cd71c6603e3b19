package domain

import "errors"

var (
	ErrNoCandidates  = errors.New("no candidates found")
	ErrInvalidPhase  = errors.New("invalid action for current phase")
	ErrGroupNotFound = errors.New("group not found")
	ErrInvalidVote   = errors.New("invalid vote decision")
	ErrDeckExhausted = errors.New("deck already exhausted")
	ErrEmptyName     = errors.New("name must not be empty")
)
